// Package rules contains the pure calculation logic for the economy.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"math"
	"time"
)

// Economy constants.
const (
	// GrowthFactor scales the price of each successive purchase of one upgrade.
	GrowthFactor = 1.2

	// EnergyRegenPerSecond is how much energy comes back per elapsed second.
	EnergyRegenPerSecond = 4.0

	// OfflineCap bounds the accrual credited for a single absence.
	OfflineCap = 3 * time.Hour

	// MinTickResolution is the smallest elapsed time a tick will accrue.
	MinTickResolution = 250 * time.Millisecond
)

// floorEpsilon absorbs float error in base*1.2^n so 150*1.2 floors to 180, not 179.
const floorEpsilon = 1e-9

// UpgradeCost returns the price of the next purchase of an upgrade that was
// already bought count times: floor(base * GrowthFactor^count).
func UpgradeCost(basePrice float64, count int) float64 {
	if count < 0 {
		count = 0
	}
	return math.Floor(basePrice*math.Pow(GrowthFactor, float64(count)) + floorEpsilon)
}

// NextProfitGain returns what the next purchase adds to profit per hour.
// Purchase number k+1 adds baseProfit*(k+1).
func NextProfitGain(baseProfit float64, count int) float64 {
	if count < 0 {
		count = 0
	}
	return baseProfit * float64(count+1)
}

// UpgradeContribution returns the total profit per hour contributed by count
// purchases of one upgrade: baseProfit * (1 + 2 + ... + count).
func UpgradeContribution(baseProfit float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	n := float64(count)
	return baseProfit * n * (n + 1) / 2
}

// TapGain returns the balance a tap credits for the energy it spends.
func TapGain(cost, tapPower float64) float64 {
	return cost * tapPower
}

// ClampElapsed bounds an elapsed duration to [0, limit].
func ClampElapsed(elapsed, limit time.Duration) time.Duration {
	if elapsed < 0 {
		return 0
	}
	if elapsed > limit {
		return limit
	}
	return elapsed
}

// Accrual is the result of letting time pass.
type Accrual struct {
	Seconds float64
	Income  float64
	Energy  float64
}

// Accrue computes passive income and energy regeneration for elapsed seconds.
// Negative or NaN input accrues nothing.
func Accrue(elapsedSeconds, profitPerHour float64) Accrual {
	if elapsedSeconds <= 0 || math.IsNaN(elapsedSeconds) {
		return Accrual{}
	}
	income := profitPerHour / 3600 * elapsedSeconds
	if income < 0 {
		income = 0
	}
	return Accrual{
		Seconds: elapsedSeconds,
		Income:  income,
		Energy:  EnergyRegenPerSecond * elapsedSeconds,
	}
}
