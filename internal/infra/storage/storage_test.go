package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/player"
)

func TestSQLiteStoreSetGetDelete(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "nested", "clicker.db"), 1)
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	defer db.Close()

	store := NewSQLiteStore(db)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("Get = %q, %v; want two", got, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestSnapshotRepositoryPlayer(t *testing.T) {
	repo := NewSnapshotRepository(NewMemoryStore())
	ctx := context.Background()

	if _, err := repo.LoadPlayer(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on empty store, got %v", err)
	}

	st := player.New(time.UnixMilli(1_700_000_000_000))
	st.Username = "alice"
	st.Balance = 1234.5
	st.PurchasedUpgrades["gpu_rig"] = 2
	if err := repo.SavePlayer(ctx, st); err != nil {
		t.Fatalf("SavePlayer failed: %v", err)
	}

	loaded, err := repo.LoadPlayer(ctx)
	if err != nil {
		t.Fatalf("LoadPlayer failed: %v", err)
	}
	if loaded.Username != "alice" || loaded.Balance != 1234.5 || loaded.PurchasedUpgrades["gpu_rig"] != 2 {
		t.Errorf("Loaded player differs: %+v", loaded)
	}
	if loaded.LastSync != 1_700_000_000_000 {
		t.Errorf("LastSync = %d", loaded.LastSync)
	}
}

func TestSnapshotRepositoryCorruptBlob(t *testing.T) {
	store := NewMemoryStore()
	repo := NewSnapshotRepository(store)
	ctx := context.Background()

	for _, blob := range []string{"{not json", "null", ""} {
		store.Set(ctx, KeyPlayer, []byte(blob))
		if _, err := repo.LoadPlayer(ctx); !errors.Is(err, ErrCorruptSnapshot) {
			t.Errorf("blob %q: expected ErrCorruptSnapshot, got %v", blob, err)
		}
	}

	store.Set(ctx, KeyLeaderboard, []byte("[]"))
	if _, err := repo.LoadRoster(ctx); !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("empty roster: expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestSnapshotRepositoryClear(t *testing.T) {
	repo := NewSnapshotRepository(NewMemoryStore())
	ctx := context.Background()

	repo.SavePlayer(ctx, player.New(time.Now()))
	repo.SaveRoster(ctx, []RosterEntry{{ID: "bot1", Name: "CryptoKing", Balance: 1}})

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := repo.LoadPlayer(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("player survived Clear: %v", err)
	}
	if _, err := repo.LoadRoster(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("roster survived Clear: %v", err)
	}
}
