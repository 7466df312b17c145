package engine

import (
	"math"
	"math/rand"
	"sort"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/player"
	"github.com/MRamiBalles/furcoin-clicker/internal/infra/storage"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
)

const (
	// MaxDrift is the exclusive upper bound of a bot's gain per drift step.
	MaxDrift = 500

	// PlayerEntryID identifies the local player in the ranking.
	PlayerEntryID = "user_current"
)

// Entry is one ranked row of the leaderboard.
type Entry struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Balance       float64 `json:"balance"`
	IsCurrentUser bool    `json:"is_current_user"`
	Rank          int     `json:"rank"`
}

// DefaultRoster returns the synthetic competitors every new game starts with.
func DefaultRoster() []storage.RosterEntry {
	return []storage.RosterEntry{
		{ID: "bot1", Name: "CryptoKing", Balance: 1500000},
		{ID: "bot2", Name: "TonWhale", Balance: 980000},
		{ID: "bot3", Name: "ElonMusk_Real", Balance: 500000},
		{ID: "bot4", Name: "Durov", Balance: 250000},
		{ID: "bot5", Name: "NotCoiner", Balance: 100000},
		{ID: "bot6", Name: "HamsterKombat", Balance: 50000},
		{ID: "bot7", Name: "Vitalik", Balance: 25000},
		{ID: "bot8", Name: "Satoshi_N", Balance: 10000},
		{ID: "bot9", Name: "PepeFrog", Balance: 5000},
		{ID: "bot10", Name: "DogeFan", Balance: 1000},
	}
}

// LeaderboardSystem simulates the competitors and ranks the player among them.
// It is not safe for concurrent use; Engine serializes access.
type LeaderboardSystem struct {
	logger *logger.Logger
	bots   []storage.RosterEntry
	ranked []Entry
}

// NewLeaderboardSystem creates a leaderboard seeded with DefaultRoster.
func NewLeaderboardSystem(log *logger.Logger) *LeaderboardSystem {
	return &LeaderboardSystem{
		logger: log,
		bots:   DefaultRoster(),
	}
}

// Seed replaces the roster, e.g. with a decoded snapshot.
func (ls *LeaderboardSystem) Seed(roster []storage.RosterEntry) {
	ls.bots = append([]storage.RosterEntry(nil), roster...)
}

// Roster returns a copy of the bots for persistence.
func (ls *LeaderboardSystem) Roster() []storage.RosterEntry {
	return append([]storage.RosterEntry(nil), ls.bots...)
}

// Drift grows every bot by a whole amount in [0, MaxDrift).
func (ls *LeaderboardSystem) Drift(rng *rand.Rand) {
	for i := range ls.bots {
		ls.bots[i].Balance += math.Floor(rng.Float64() * MaxDrift)
	}
}

// Rank recomputes the ranking against the player and returns a copy of it.
func (ls *LeaderboardSystem) Rank(p *player.State) []Entry {
	ls.ranked = RankEntries(ls.bots, p)
	return ls.Entries()
}

// Entries returns a copy of the last ranking.
func (ls *LeaderboardSystem) Entries() []Entry {
	return append([]Entry(nil), ls.ranked...)
}

// PlayerRank returns the player's 1-based rank from the last ranking.
func (ls *LeaderboardSystem) PlayerRank() (int, bool) {
	for _, e := range ls.ranked {
		if e.IsCurrentUser {
			return e.Rank, true
		}
	}
	return 0, false
}

// RankEntries merges the bots with the player and sorts by balance,
// highest first. Ties keep roster order with the player last.
// The player is only included once registered.
func RankEntries(bots []storage.RosterEntry, p *player.State) []Entry {
	entries := make([]Entry, 0, len(bots)+1)
	for _, b := range bots {
		entries = append(entries, Entry{ID: b.ID, Name: b.Name, Balance: b.Balance})
	}
	if p != nil && p.IsRegistered() {
		entries = append(entries, Entry{
			ID:            PlayerEntryID,
			Name:          p.Username,
			Balance:       p.Balance,
			IsCurrentUser: true,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Balance > entries[j].Balance
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
