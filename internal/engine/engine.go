package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/player"
	"github.com/MRamiBalles/furcoin-clicker/internal/events"
	"github.com/MRamiBalles/furcoin-clicker/internal/infra/storage"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/metrics"
)

// Default driver periods.
const (
	DefaultTickInterval        = 1 * time.Second
	DefaultLeaderboardInterval = 2 * time.Second
	DefaultSaveTimeout         = 2 * time.Second
)

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand replaces the drift randomness source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithMetrics replaces the global metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithIntervals sets the progression and leaderboard driver periods.
func WithIntervals(tick, leaderboard time.Duration) Option {
	return func(e *Engine) {
		if tick > 0 {
			e.tickInterval = tick
		}
		if leaderboard > 0 {
			e.leaderboardInterval = leaderboard
		}
	}
}

// WithSaveTimeout bounds every store call.
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.saveTimeout = d
		}
	}
}

// Engine is the session controller: it owns the player and the leaderboard,
// serializes every operation and persists after each mutation.
type Engine struct {
	mu sync.Mutex

	repo     *storage.SnapshotRepository
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	clock    Clock
	rng      *rand.Rand

	tickInterval        time.Duration
	leaderboardInterval time.Duration
	saveTimeout         time.Duration

	// Sub-systems
	progression *ProgressionSystem
	leaderboard *LeaderboardSystem

	// Drivers
	progressionTicker *Ticker
	leaderboardTicker *Ticker
	running           bool
}

// NewEngine wires the systems to a store. Call Bootstrap before use.
func NewEngine(store storage.Store, eventLog *events.EventLog, log *logger.Logger, opts ...Option) *Engine {
	if eventLog == nil {
		eventLog = events.NewEventLog(events.DefaultCapacity)
	}
	if log == nil {
		log = logger.NewDiscardLogger()
	}

	e := &Engine{
		repo:     storage.NewSnapshotRepository(store),
		eventLog: eventLog,
		logger:   log,
		metrics:  metrics.Get(),
		clock:    SystemClock{},

		tickInterval:        DefaultTickInterval,
		leaderboardInterval: DefaultLeaderboardInterval,
		saveTimeout:         DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(e.clock.Now().UnixNano()))
	}

	e.progression = NewProgressionSystem(eventLog, log, e.clock.Now())
	e.leaderboard = NewLeaderboardSystem(log)
	return e
}

// Bootstrap loads both snapshots, credits the offline absence and computes
// the first ranking. Missing or corrupt data falls back to defaults.
func (e *Engine) Bootstrap(ctx context.Context) OfflineReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()

	st, err := e.loadPlayer(ctx)
	switch {
	case err == nil:
		if st.Normalize(now) {
			e.logger.Warn("Saved player had invalid fields, repaired.")
		}
	case errors.Is(err, storage.ErrNotFound):
		e.logger.Info("No saved player, starting fresh.")
		st = player.New(now)
	default:
		e.logger.Warnf("Could not load saved player, starting fresh: %v", err)
		e.metrics.RecordLoadFallback()
		st = player.New(now)
	}
	e.progression.Load(st)

	roster, err := e.loadRoster(ctx)
	switch {
	case err == nil:
		e.leaderboard.Seed(roster)
	case errors.Is(err, storage.ErrNotFound):
		e.leaderboard.Seed(DefaultRoster())
	default:
		e.logger.Warnf("Could not load leaderboard, using default roster: %v", err)
		e.metrics.RecordLoadFallback()
		e.leaderboard.Seed(DefaultRoster())
	}

	report := e.progression.OfflineCatchUp(now)
	e.leaderboard.Rank(e.progression.State())
	e.savePlayer()
	e.saveRoster()

	e.logger.Infof("Session bootstrapped (user=%q, balance=%.0f, offline income=%.2f)",
		st.Username, st.Balance, report.Income)
	return report
}

// Start launches the progression and leaderboard drivers.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true

	e.logger.Info("Starting progression engine...")
	e.progressionTicker = NewTicker("progression", e.tickInterval, e.progressionTick, e.logger)
	e.leaderboardTicker = NewTicker("leaderboard", e.leaderboardInterval, e.leaderboardTick, e.logger)

	go e.progressionTicker.Start(ctx)
	go e.leaderboardTicker.Start(ctx)
}

// Stop halts both drivers and waits for them to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	pt, lt := e.progressionTicker, e.leaderboardTicker
	e.mu.Unlock()

	// Drivers take the lock on every beat, so wait outside of it.
	pt.Stop()
	lt.Stop()
	<-pt.Done()
	<-lt.Done()
}

// Tick runs one progression step by hand. The progression driver calls it.
func (e *Engine) Tick() {
	e.progressionTick()
}

// DriftLeaderboard runs one leaderboard step by hand. The leaderboard driver calls it.
func (e *Engine) DriftLeaderboard() {
	e.leaderboardTick()
}

func (e *Engine) progressionTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	if e.progression.Tick(e.clock.Now()) {
		e.leaderboard.Rank(e.progression.State())
		e.savePlayer()
	}
	e.metrics.RecordTick(time.Since(start))
}

func (e *Engine) leaderboardTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.leaderboard.Drift(e.rng)
	e.leaderboard.Rank(e.progression.State())
	e.saveRoster()
	e.metrics.RecordDrift()
}

// RegisterUser completes onboarding.
func (e *Engine) RegisterUser(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.progression.RegisterUser(name); err != nil {
		return err
	}
	e.afterMutation()
	return nil
}

// Tap spends energy for balance.
func (e *Engine) Tap(cost float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.progression.Tap(cost)
	e.metrics.RecordTap(err == nil)
	if err != nil {
		return err
	}
	e.afterMutation()
	return nil
}

// BuyUpgrade purchases the next unit of an upgrade.
func (e *Engine) BuyUpgrade(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.progression.BuyUpgrade(id); err != nil {
		return err
	}
	e.metrics.RecordUpgradePurchase()
	e.afterMutation()
	return nil
}

// BuySkin unlocks and equips a skin; owned skins are a no-op.
func (e *Engine) BuySkin(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	bought, err := e.progression.BuySkin(id)
	if err != nil {
		return err
	}
	if bought {
		e.metrics.RecordSkinPurchase()
		e.afterMutation()
	}
	return nil
}

// EquipSkin activates an unlocked skin.
func (e *Engine) EquipSkin(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, err := e.progression.EquipSkin(id)
	if err != nil {
		return err
	}
	if changed {
		e.savePlayer()
	}
	return nil
}

// Reset wipes both snapshots and starts over from defaults.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()
	if err := e.repo.Clear(ctx); err != nil {
		e.logger.Errorf("failed to clear storage: %v", err)
	}

	actor := e.progression.actor()
	e.progression.Load(player.New(e.clock.Now()))
	e.leaderboard.Seed(DefaultRoster())
	e.leaderboard.Rank(e.progression.State())

	e.eventLog.Append(events.GameEvent{Type: events.EventTypeStateReset, ActorID: actor})
	e.logger.Event(string(events.EventTypeStateReset), actor, "progress wiped")

	e.savePlayer()
	e.saveRoster()
}

// State returns a copy of the player.
func (e *Engine) State() *player.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progression.State().Clone()
}

// Leaderboard returns a copy of the current ranking.
func (e *Engine) Leaderboard() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaderboard.Entries()
}

// PlayerRank returns the player's rank, false while unregistered.
func (e *Engine) PlayerRank() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaderboard.PlayerRank()
}

// View returns the player together with derived presentation fields.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	rank, _ := e.leaderboard.PlayerRank()
	return newView(e.progression.State(), rank)
}

// Catalog returns every upgrade and skin as seen by the current player.
func (e *Engine) Catalog() CatalogView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newCatalogView(e.progression.State())
}

// EventLog exposes the journal for the transport layer.
func (e *Engine) EventLog() *events.EventLog {
	return e.eventLog
}

func (e *Engine) afterMutation() {
	e.leaderboard.Rank(e.progression.State())
	e.savePlayer()
}

// savePlayer persists the player. Failures are logged; memory stays authoritative.
func (e *Engine) savePlayer() {
	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()

	start := time.Now()
	err := e.repo.SavePlayer(ctx, e.progression.State())
	e.metrics.RecordSave(time.Since(start), err)
	if err != nil {
		e.logger.Errorf("failed to save player: %v", err)
	}
}

func (e *Engine) saveRoster() {
	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()

	start := time.Now()
	err := e.repo.SaveRoster(ctx, e.leaderboard.Roster())
	e.metrics.RecordSave(time.Since(start), err)
	if err != nil {
		e.logger.Errorf("failed to save leaderboard: %v", err)
	}
}

func (e *Engine) loadPlayer(ctx context.Context) (*player.State, error) {
	ctx, cancel := context.WithTimeout(ctx, e.saveTimeout)
	defer cancel()
	return e.repo.LoadPlayer(ctx)
}

func (e *Engine) loadRoster(ctx context.Context) ([]storage.RosterEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, e.saveTimeout)
	defer cancel()
	return e.repo.LoadRoster(ctx)
}
