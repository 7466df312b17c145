package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/player"
)

// ErrCorruptSnapshot wraps decode failures of a stored blob.
var ErrCorruptSnapshot = errors.New("storage: corrupt snapshot")

// RosterEntry is one synthetic leaderboard competitor as persisted.
type RosterEntry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// SnapshotRepository encodes the player and the roster into a Store.
type SnapshotRepository struct {
	store Store
}

// NewSnapshotRepository wraps a Store.
func NewSnapshotRepository(store Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// LoadPlayer returns the saved player, ErrNotFound, or an ErrCorruptSnapshot.
func (r *SnapshotRepository) LoadPlayer(ctx context.Context) (*player.State, error) {
	blob, err := r.store.Get(ctx, KeyPlayer)
	if err != nil {
		return nil, err
	}

	var st player.State
	if err := decode(blob, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SavePlayer writes the player snapshot.
func (r *SnapshotRepository) SavePlayer(ctx context.Context, st *player.State) error {
	blob, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}
	return r.store.Set(ctx, KeyPlayer, blob)
}

// LoadRoster returns the saved leaderboard roster.
func (r *SnapshotRepository) LoadRoster(ctx context.Context) ([]RosterEntry, error) {
	blob, err := r.store.Get(ctx, KeyLeaderboard)
	if err != nil {
		return nil, err
	}

	var roster []RosterEntry
	if err := decode(blob, &roster); err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrCorruptSnapshot)
	}
	return roster, nil
}

// SaveRoster writes the leaderboard roster.
func (r *SnapshotRepository) SaveRoster(ctx context.Context, roster []RosterEntry) error {
	blob, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("failed to marshal roster: %w", err)
	}
	return r.store.Set(ctx, KeyLeaderboard, blob)
}

// Clear deletes both snapshots.
func (r *SnapshotRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, KeyPlayer); err != nil {
		return err
	}
	return r.store.Delete(ctx, KeyLeaderboard)
}

func decode(blob []byte, v interface{}) error {
	if len(blob) == 0 || string(blob) == "null" {
		return fmt.Errorf("%w: empty blob", ErrCorruptSnapshot)
	}
	if err := json.Unmarshal(blob, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return nil
}
