package engine

import "errors"

// Validation errors returned by the mutators. None of them change state.
var (
	ErrInvalidUsername     = errors.New("username must not be empty")
	ErrAlreadyRegistered   = errors.New("user is already registered")
	ErrNotRegistered       = errors.New("user is not registered")
	ErrInvalidTapCost      = errors.New("tap cost must be positive")
	ErrNotEnoughEnergy     = errors.New("not enough energy")
	ErrUnknownUpgrade      = errors.New("unknown upgrade")
	ErrUnknownSkin         = errors.New("unknown skin")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSkinLocked          = errors.New("skin is not unlocked")
)

// IsValidationError reports whether err is one of the sentinel errors above.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidUsername, ErrAlreadyRegistered, ErrNotRegistered,
		ErrInvalidTapCost, ErrNotEnoughEnergy, ErrUnknownUpgrade,
		ErrUnknownSkin, ErrInsufficientBalance, ErrSkinLocked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
