package rules

import (
	"testing"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/catalog"
)

func TestResolveLevelThresholds(t *testing.T) {
	cases := []struct {
		balance float64
		want    int
	}{
		{0, 0},
		{4999.99, 0},
		{5000, 1},
		{24999, 1},
		{25000, 2},
		{100000, 3},
		{999999, 3},
		{1000000, 4},
		{1e12, 4},
		{-10, 0},
	}
	for _, c := range cases {
		if got := ResolveLevel(c.balance, catalog.Levels); got != c.want {
			t.Errorf("ResolveLevel(%v) = %d, want %d", c.balance, got, c.want)
		}
	}
}

func TestResolveLevelMonotonic(t *testing.T) {
	prev := 0
	for balance := 0.0; balance <= 2_000_000; balance += 777 {
		level := ResolveLevel(balance, catalog.Levels)
		if level < prev {
			t.Fatalf("level dropped from %d to %d at balance %v", prev, level, balance)
		}
		if catalog.Levels[level].Threshold > balance {
			t.Fatalf("level %d threshold above balance %v", level, balance)
		}
		if level+1 < len(catalog.Levels) && catalog.Levels[level+1].Threshold <= balance {
			t.Fatalf("balance %v should have reached level %d", balance, level+1)
		}
		prev = level
	}
}

func TestLevelProgress(t *testing.T) {
	if got := LevelProgress(2500, 0, catalog.Levels); got != 50 {
		t.Errorf("LevelProgress(2500) = %v, want 50", got)
	}
	if got := LevelProgress(5_000_000, 4, catalog.Levels); got != 100 {
		t.Errorf("top level progress = %v, want 100", got)
	}
	if got := LevelProgress(-1, 0, catalog.Levels); got != 0 {
		t.Errorf("negative balance progress = %v, want 0", got)
	}
}
