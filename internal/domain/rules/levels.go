package rules

import (
	"math"

	"github.com/MRamiBalles/furcoin-clicker/internal/domain/catalog"
)

// ResolveLevel returns the index of the highest threshold <= balance.
// The table must be sorted ascending; anything below the first row is level 0.
func ResolveLevel(balance float64, table []catalog.Level) int {
	if math.IsNaN(balance) {
		return 0
	}
	level := 0
	for i, row := range table {
		if balance >= row.Threshold {
			level = i
		} else {
			break
		}
	}
	return level
}

// LevelProgress returns the percentage [0,100] of the way from the current
// level's threshold to the next one. The top level always reports 100.
func LevelProgress(balance float64, level int, table []catalog.Level) float64 {
	if len(table) == 0 || level >= len(table)-1 {
		return 100
	}
	if level < 0 {
		level = 0
	}
	current := table[level].Threshold
	next := table[level+1].Threshold
	if next <= current {
		return 100
	}
	pct := (balance - current) / (next - current) * 100
	return math.Max(0, math.Min(100, pct))
}
