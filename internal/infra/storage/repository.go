// Package storage provides the persistence layer for the clicker server.
// Everything is a keyed blob: the engine only needs get/set/delete, and each
// backend stores opaque JSON it does not interpret.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Keys used by the engine.
const (
	KeyPlayer      = "furry_combat_save"
	KeyLeaderboard = "furry_combat_leaderboard"
)

// Store is a minimal key-value store.
type Store interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores blob under key, replacing any previous value.
	Set(ctx context.Context, key string, blob []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
