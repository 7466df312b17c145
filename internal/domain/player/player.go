// Package player defines the save record of the single local player.
// This package is PURE and must NOT import any infrastructure packages.
package player

import (
	"math"
	"strings"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/catalog"
)

// Starting stats.
const (
	DefaultMaxEnergy = 2000
	DefaultTapPower  = 1
)

// State is the authoritative save record.
type State struct {
	Username      string  `json:"username"`
	Balance       float64 `json:"balance"`
	ProfitPerHour float64 `json:"profit_per_hour"`
	Energy        float64 `json:"energy"`
	MaxEnergy     float64 `json:"max_energy"`
	TapPower      float64 `json:"tap_power"`

	// Derived from Balance; stored only so the snapshot is self-describing.
	Level int `json:"level"`

	PurchasedUpgrades map[string]int `json:"purchased_upgrades"` // id -> purchase count
	UnlockedSkins     []string       `json:"unlocked_skins"`
	ActiveSkin        string         `json:"active_skin"`

	LastSync int64 `json:"last_sync"` // Unix ms of the last accrual
}

// New creates a fresh, unregistered player.
func New(now time.Time) *State {
	return &State{
		Energy:            DefaultMaxEnergy,
		MaxEnergy:         DefaultMaxEnergy,
		TapPower:          DefaultTapPower,
		PurchasedUpgrades: make(map[string]int),
		UnlockedSkins:     []string{catalog.DefaultSkinID},
		ActiveSkin:        catalog.DefaultSkinID,
		LastSync:          now.UnixMilli(),
	}
}

// IsRegistered reports whether onboarding has completed.
func (s *State) IsRegistered() bool {
	return strings.TrimSpace(s.Username) != ""
}

// HasSkin reports whether a skin is unlocked.
func (s *State) HasSkin(id string) bool {
	for _, unlocked := range s.UnlockedSkins {
		if unlocked == id {
			return true
		}
	}
	return false
}

// UpgradeCount returns how many times an upgrade was bought.
func (s *State) UpgradeCount(id string) int {
	return s.PurchasedUpgrades[id]
}

// LastSyncTime returns LastSync as a time.
func (s *State) LastSyncTime() time.Time {
	return time.UnixMilli(s.LastSync)
}

// Clone returns a deep copy safe to hand to readers.
func (s *State) Clone() *State {
	c := *s
	c.PurchasedUpgrades = make(map[string]int, len(s.PurchasedUpgrades))
	for k, v := range s.PurchasedUpgrades {
		c.PurchasedUpgrades[k] = v
	}
	c.UnlockedSkins = append([]string(nil), s.UnlockedSkins...)
	return &c
}

// Normalize repairs a decoded snapshot so the invariants hold again.
// It returns true if anything had to be fixed.
func (s *State) Normalize(now time.Time) bool {
	fixed := false

	if s.MaxEnergy <= 0 || math.IsNaN(s.MaxEnergy) {
		s.MaxEnergy = DefaultMaxEnergy
		fixed = true
	}
	if s.Energy < 0 || math.IsNaN(s.Energy) {
		s.Energy = 0
		fixed = true
	}
	if s.Energy > s.MaxEnergy {
		s.Energy = s.MaxEnergy
		fixed = true
	}
	if s.Balance < 0 || math.IsNaN(s.Balance) {
		s.Balance = 0
		fixed = true
	}
	if s.ProfitPerHour < 0 || math.IsNaN(s.ProfitPerHour) {
		s.ProfitPerHour = 0
		fixed = true
	}
	if s.TapPower <= 0 || math.IsNaN(s.TapPower) {
		s.TapPower = DefaultTapPower
		fixed = true
	}
	if s.PurchasedUpgrades == nil {
		s.PurchasedUpgrades = make(map[string]int)
	}
	for id, n := range s.PurchasedUpgrades {
		if n <= 0 {
			delete(s.PurchasedUpgrades, id)
			fixed = true
		}
	}
	if !s.HasSkin(catalog.DefaultSkinID) {
		s.UnlockedSkins = append([]string{catalog.DefaultSkinID}, s.UnlockedSkins...)
		fixed = true
	}
	if !s.HasSkin(s.ActiveSkin) {
		s.ActiveSkin = catalog.DefaultSkinID
		fixed = true
	}
	if s.LastSync <= 0 {
		s.LastSync = now.UnixMilli()
		fixed = true
	}
	return fixed
}
