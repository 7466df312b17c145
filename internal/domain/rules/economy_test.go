package rules

import (
	"math"
	"testing"
	"time"
)

func TestUpgradeCostScenario(t *testing.T) {
	want := []float64{150, 180, 216}
	for count, w := range want {
		if got := UpgradeCost(150, count); got != w {
			t.Errorf("UpgradeCost(150, %d) = %v, want %v", count, got, w)
		}
	}
}

func TestThreePurchasesFromOneThousand(t *testing.T) {
	balance := 1000.0
	for count := 0; count < 3; count++ {
		balance -= UpgradeCost(150, count)
	}
	if balance != 454 {
		t.Errorf("balance after three purchases = %v, want 454", balance)
	}
}

func TestUpgradeCostStrictlyIncreases(t *testing.T) {
	for _, base := range []float64{500, 750, 1000, 2000, 50000} {
		prev := UpgradeCost(base, 0)
		for count := 1; count < 40; count++ {
			next := UpgradeCost(base, count)
			if next <= prev {
				t.Fatalf("base %v: cost at %d (%v) not above cost at %d (%v)", base, count, next, count-1, prev)
			}
			prev = next
		}
	}
}

func TestUpgradeCostIsFloored(t *testing.T) {
	// 1000 * 1.2^5 = 2488.32
	if got := UpgradeCost(1000, 5); got != 2488 {
		t.Errorf("UpgradeCost(1000, 5) = %v, want 2488", got)
	}
	if got := UpgradeCost(500, -3); got != 500 {
		t.Errorf("negative count should price like the first purchase, got %v", got)
	}
}

// The level-scaled profit formula is a balancing decision; this pins it.
func TestProfitFormulaIsLevelScaled(t *testing.T) {
	gains := []float64{50, 100, 150, 200}
	total := 0.0
	for count, want := range gains {
		got := NextProfitGain(50, count)
		if got != want {
			t.Errorf("NextProfitGain(50, %d) = %v, want %v", count, got, want)
		}
		total += got
		if c := UpgradeContribution(50, count+1); c != total {
			t.Errorf("UpgradeContribution(50, %d) = %v, want %v", count+1, c, total)
		}
	}
	if UpgradeContribution(50, 0) != 0 {
		t.Errorf("no purchases should contribute nothing")
	}
}

func TestAccrueHourlyRate(t *testing.T) {
	a := Accrue(10, 3600)
	if a.Income != 10 {
		t.Errorf("Income = %v, want 10", a.Income)
	}
	if a.Energy != 40 {
		t.Errorf("Energy = %v, want 40", a.Energy)
	}
}

func TestAccrueIgnoresNonPositiveElapsed(t *testing.T) {
	for _, s := range []float64{0, -5, math.NaN()} {
		if a := Accrue(s, 3600); a != (Accrual{}) {
			t.Errorf("Accrue(%v) = %+v, want zero", s, a)
		}
	}
}

func TestClampElapsed(t *testing.T) {
	if got := ClampElapsed(-time.Second, OfflineCap); got != 0 {
		t.Errorf("negative elapsed clamped to %v", got)
	}
	if got := ClampElapsed(48*time.Hour, OfflineCap); got != OfflineCap {
		t.Errorf("long elapsed clamped to %v, want %v", got, OfflineCap)
	}
	if got := ClampElapsed(time.Minute, OfflineCap); got != time.Minute {
		t.Errorf("in-range elapsed changed to %v", got)
	}
}

func TestTapGain(t *testing.T) {
	if got := TapGain(3, 1); got != 3 {
		t.Errorf("TapGain(3, 1) = %v", got)
	}
	if got := TapGain(1, 2.5); got != 2.5 {
		t.Errorf("TapGain(1, 2.5) = %v", got)
	}
}
