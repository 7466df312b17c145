package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/catalog"
	"github.com/MRamiBalles/furcoin-clicker/internal/domain/player"
	"github.com/MRamiBalles/furcoin-clicker/internal/domain/rules"
	"github.com/MRamiBalles/furcoin-clicker/internal/events"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
)

// SystemActorID is the journal actor for events with no registered user.
const SystemActorID = "SYSTEM"

// RegisteredPayload is attached to USER_REGISTERED.
type RegisteredPayload struct {
	Username string `json:"username"`
}

// LevelUpPayload is attached to LEVEL_UP.
type LevelUpPayload struct {
	From    int     `json:"from"`
	To      int     `json:"to"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// UpgradePurchasedPayload is attached to UPGRADE_PURCHASED.
type UpgradePurchasedPayload struct {
	UpgradeID     string  `json:"upgrade_id"`
	Count         int     `json:"count"`
	Cost          float64 `json:"cost"`
	ProfitGain    float64 `json:"profit_gain"`
	ProfitPerHour float64 `json:"profit_per_hour"`
}

// SkinPayload is attached to SKIN_PURCHASED and SKIN_EQUIPPED.
type SkinPayload struct {
	SkinID string  `json:"skin_id"`
	Price  float64 `json:"price,omitempty"`
}

// OfflineReport describes what the player earned while away.
type OfflineReport struct {
	Elapsed  time.Duration `json:"elapsed"`  // real absence
	Credited time.Duration `json:"credited"` // absence after the cap
	Income   float64       `json:"income"`
	Energy   float64       `json:"energy"` // energy actually restored
}

// ProgressionSystem is the state machine over the player's save record.
// It is not safe for concurrent use; Engine serializes access.
type ProgressionSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	state    *player.State
}

// NewProgressionSystem creates a progression system around a fresh player.
func NewProgressionSystem(eventLog *events.EventLog, log *logger.Logger, now time.Time) *ProgressionSystem {
	return &ProgressionSystem{
		eventLog: eventLog,
		logger:   log,
		state:    player.New(now),
	}
}

// Load replaces the current state, e.g. with a decoded snapshot.
// The level is recomputed without journaling.
func (ps *ProgressionSystem) Load(st *player.State) {
	st.Level = rules.ResolveLevel(st.Balance, catalog.Levels)
	ps.state = st
}

// State returns the live state. Callers must not retain it outside the lock.
func (ps *ProgressionSystem) State() *player.State {
	return ps.state
}

// RegisterUser moves the player from Unregistered to Active.
func (ps *ProgressionSystem) RegisterUser(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidUsername
	}
	if ps.state.IsRegistered() {
		return ErrAlreadyRegistered
	}

	ps.state.Username = name
	ps.emit(events.EventTypeUserRegistered, RegisteredPayload{Username: name})
	ps.logger.Event(string(events.EventTypeUserRegistered), name, "onboarding complete")
	return nil
}

// Tap spends cost energy and credits cost * tap power.
func (ps *ProgressionSystem) Tap(cost float64) error {
	if !ps.state.IsRegistered() {
		return ErrNotRegistered
	}
	if cost <= 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return ErrInvalidTapCost
	}
	if ps.state.Energy < cost {
		return ErrNotEnoughEnergy
	}

	ps.state.Energy -= cost
	ps.state.Balance += rules.TapGain(cost, ps.state.TapPower)
	ps.recomputeLevel()
	return nil
}

// Tick accrues income and energy for the time since the last sync.
// It reports whether anything was credited.
func (ps *ProgressionSystem) Tick(now time.Time) bool {
	elapsed := now.Sub(ps.state.LastSyncTime())
	if elapsed < 0 {
		// Wall clock went backwards; restart the interval from here.
		ps.logger.Warnf("clock moved back by %v, resyncing", -elapsed)
		ps.state.LastSync = now.UnixMilli()
		return false
	}
	if elapsed < rules.MinTickResolution {
		return false
	}

	ps.accrue(rules.ClampElapsed(elapsed, rules.OfflineCap))
	ps.state.LastSync = now.UnixMilli()
	return true
}

// OfflineCatchUp credits the absence since the last sync, capped at
// rules.OfflineCap, and journals the earnings.
func (ps *ProgressionSystem) OfflineCatchUp(now time.Time) OfflineReport {
	elapsed := now.Sub(ps.state.LastSyncTime())
	if elapsed < 0 {
		elapsed = 0
	}
	credited := rules.ClampElapsed(elapsed, rules.OfflineCap)

	income, energy := ps.accrue(credited)
	ps.state.LastSync = now.UnixMilli()

	report := OfflineReport{Elapsed: elapsed, Credited: credited, Income: income, Energy: energy}
	if income > 0 {
		ps.emit(events.EventTypeOfflineEarnings, report)
		ps.logger.Event(string(events.EventTypeOfflineEarnings), ps.actor(),
			fmt.Sprintf("away %v, credited %v, earned %.2f", elapsed.Round(time.Second), credited, income))
	}
	return report
}

// BuyUpgrade purchases one more unit of an upgrade.
func (ps *ProgressionSystem) BuyUpgrade(id string) error {
	if !ps.state.IsRegistered() {
		return ErrNotRegistered
	}
	up, ok := catalog.GetUpgrade(id)
	if !ok {
		return ErrUnknownUpgrade
	}

	count := ps.state.UpgradeCount(id)
	cost := rules.UpgradeCost(up.BasePrice, count)
	if ps.state.Balance < cost {
		return ErrInsufficientBalance
	}

	gain := rules.NextProfitGain(up.BaseProfit, count)
	ps.state.Balance -= cost
	ps.state.PurchasedUpgrades[id] = count + 1
	ps.state.ProfitPerHour += gain
	ps.recomputeLevel()

	ps.emit(events.EventTypeUpgradePurchased, UpgradePurchasedPayload{
		UpgradeID:     id,
		Count:         count + 1,
		Cost:          cost,
		ProfitGain:    gain,
		ProfitPerHour: ps.state.ProfitPerHour,
	})
	return nil
}

// BuySkin unlocks and equips a skin. Buying an owned skin is a no-op and
// reports false.
func (ps *ProgressionSystem) BuySkin(id string) (bool, error) {
	if !ps.state.IsRegistered() {
		return false, ErrNotRegistered
	}
	skin, ok := catalog.GetSkin(id)
	if !ok {
		return false, ErrUnknownSkin
	}
	if ps.state.HasSkin(id) {
		return false, nil
	}
	if ps.state.Balance < skin.Price {
		return false, ErrInsufficientBalance
	}

	ps.state.Balance -= skin.Price
	ps.state.UnlockedSkins = append(ps.state.UnlockedSkins, id)
	ps.state.ActiveSkin = id
	ps.recomputeLevel()

	ps.emit(events.EventTypeSkinPurchased, SkinPayload{SkinID: id, Price: skin.Price})
	return true, nil
}

// EquipSkin activates an unlocked skin. It reports whether the active skin changed.
func (ps *ProgressionSystem) EquipSkin(id string) (bool, error) {
	if _, ok := catalog.GetSkin(id); !ok {
		return false, ErrUnknownSkin
	}
	if !ps.state.HasSkin(id) {
		return false, ErrSkinLocked
	}
	if ps.state.ActiveSkin == id {
		return false, nil
	}

	ps.state.ActiveSkin = id
	ps.emit(events.EventTypeSkinEquipped, SkinPayload{SkinID: id})
	return true, nil
}

// accrue credits d of passive time and returns income and the energy actually added.
func (ps *ProgressionSystem) accrue(d time.Duration) (float64, float64) {
	a := rules.Accrue(d.Seconds(), ps.state.ProfitPerHour)

	before := ps.state.Energy
	ps.state.Balance += a.Income
	ps.state.Energy = math.Min(ps.state.MaxEnergy, ps.state.Energy+a.Energy)
	ps.recomputeLevel()

	return a.Income, ps.state.Energy - before
}

// recomputeLevel derives the level from the balance and journals level ups.
func (ps *ProgressionSystem) recomputeLevel() {
	old := ps.state.Level
	next := rules.ResolveLevel(ps.state.Balance, catalog.Levels)
	ps.state.Level = next
	if next <= old {
		return
	}

	name := catalog.LevelName(next)
	ps.emit(events.EventTypeLevelUp, LevelUpPayload{
		From:    old,
		To:      next,
		Name:    name,
		Balance: ps.state.Balance,
	})
	ps.logger.Event(string(events.EventTypeLevelUp), ps.actor(), fmt.Sprintf("%s -> %s", catalog.LevelName(old), name))
}

func (ps *ProgressionSystem) emit(t events.EventType, payload interface{}) {
	if ps.eventLog == nil {
		return
	}
	ps.eventLog.Append(events.GameEvent{
		Type:    t,
		ActorID: ps.actor(),
		Payload: payload,
	})
}

func (ps *ProgressionSystem) actor() string {
	if ps.state.IsRegistered() {
		return ps.state.Username
	}
	return SystemActorID
}
