// Package sim runs an auto-playing user against the real engine on a
// simulated clock, for tuning the economy without waiting in real time.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/catalog"
	"github.com/MRamiBalles/furcoin-clicker/internal/engine"
	"github.com/MRamiBalles/furcoin-clicker/internal/events"
	"github.com/MRamiBalles/furcoin-clicker/internal/infra/storage"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/metrics"
)

// Strategy picks the next upgrade to buy.
type Strategy string

const (
	// StrategyCheapest buys the cheapest affordable upgrade.
	StrategyCheapest Strategy = "cheapest"
	// StrategyPayback buys the affordable upgrade with the best cost/profit ratio.
	StrategyPayback Strategy = "payback"
	// StrategyNone never buys, leaving taps as the only income.
	StrategyNone Strategy = "none"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCheapest, StrategyPayback, StrategyNone:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Options configures a run.
type Options struct {
	Duration      time.Duration
	Step          time.Duration
	TapsPerSecond int
	Strategy      Strategy
	Seed          int64
}

// Milestone records when a level was first reached.
type Milestone struct {
	Level int           `json:"level"`
	Name  string        `json:"name"`
	At    time.Duration `json:"at"`
}

// Report summarizes a finished run.
type Report struct {
	Strategy      Strategy       `json:"strategy"`
	Elapsed       time.Duration  `json:"elapsed"`
	Balance       float64        `json:"balance"`
	ProfitPerHour float64        `json:"profit_per_hour"`
	Level         int            `json:"level"`
	LevelName     string         `json:"level_name"`
	Rank          int            `json:"rank"`
	Taps          int            `json:"taps"`
	Purchases     map[string]int `json:"purchases"`
	Milestones    []Milestone    `json:"milestones"`
}

// stepClock is advanced by hand.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

// epoch keeps runs reproducible.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Run plays for opts.Duration of simulated time and reports the outcome.
func Run(ctx context.Context, opts Options, log *logger.Logger) (*Report, error) {
	if opts.Step < engine.DefaultTickInterval {
		opts.Step = engine.DefaultTickInterval
	}
	if opts.Duration <= 0 {
		return nil, errors.New("duration must be positive")
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyCheapest
	}

	clock := &stepClock{now: epoch}
	eng := engine.NewEngine(storage.NewMemoryStore(), events.NewEventLog(0), log,
		engine.WithClock(clock),
		engine.WithMetrics(metrics.New()),
		engine.WithRand(rand.New(rand.NewSource(opts.Seed))),
	)
	eng.Bootstrap(ctx)
	if err := eng.RegisterUser("autoplayer"); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	report := &Report{Strategy: opts.Strategy, Purchases: make(map[string]int)}
	tapsPerStep := int(float64(opts.TapsPerSecond) * opts.Step.Seconds())
	lastLevel := 0
	nextDrift := engine.DefaultLeaderboardInterval

	for elapsed := time.Duration(0); elapsed < opts.Duration; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clock.now = clock.now.Add(opts.Step)
		elapsed += opts.Step
		eng.Tick()
		for elapsed >= nextDrift {
			eng.DriftLeaderboard()
			nextDrift += engine.DefaultLeaderboardInterval
		}

		for i := 0; i < tapsPerStep; i++ {
			if err := eng.Tap(1); err != nil {
				break
			}
			report.Taps++
		}

		for opts.Strategy != StrategyNone {
			id := pick(eng.Catalog(), opts.Strategy)
			if id == "" || eng.BuyUpgrade(id) != nil {
				break
			}
			report.Purchases[id]++
		}

		if level := eng.State().Level; level > lastLevel {
			for l := lastLevel + 1; l <= level; l++ {
				report.Milestones = append(report.Milestones, Milestone{Level: l, Name: catalog.LevelName(l), At: elapsed})
			}
			lastLevel = level
		}
		report.Elapsed = elapsed
	}

	st := eng.State()
	report.Balance = st.Balance
	report.ProfitPerHour = st.ProfitPerHour
	report.Level = st.Level
	report.LevelName = catalog.LevelName(st.Level)
	report.Rank, _ = eng.PlayerRank()
	return report, nil
}

// pick returns the upgrade the strategy wants next, or "" if none is affordable.
func pick(cv engine.CatalogView, strategy Strategy) string {
	var offers []engine.UpgradeOffer
	for _, o := range cv.Upgrades {
		if o.Affordable {
			offers = append(offers, o)
		}
	}
	if len(offers) == 0 {
		return ""
	}

	score := func(o engine.UpgradeOffer) float64 {
		if strategy == StrategyPayback {
			return o.NextCost / o.NextProfitGain
		}
		return o.NextCost
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return score(offers[i]) < score(offers[j])
	})
	return offers[0].ID
}
