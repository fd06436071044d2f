// Package billing converts wall-clock occupancy into currency. All
// functions are pure so the live countdown endpoint can poll them and
// tests can drive them with a fixed clock.
package billing

import (
	"math"
	"time"
)

// Clock supplies the current time. Injected into services and jobs so
// tests can simulate elapsed play time.
type Clock func() time.Time

// Tariff holds the café's fixed pricing knobs in the smallest currency unit.
type Tariff struct {
	Deposit     int64
	RatePerHour int64
}

// RatePerMinute returns the derived per-minute rate.
func (t Tariff) RatePerMinute() float64 {
	return float64(t.RatePerHour) / 60.0
}

// ElapsedMinutes returns the fractional minutes between sessionStart and
// now, clamped at zero to tolerate clock skew.
func ElapsedMinutes(sessionStart, now time.Time) float64 {
	elapsed := now.Sub(sessionStart).Minutes()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Cost returns the floored cost of the elapsed occupancy. Never negative.
func (t Tariff) Cost(sessionStart, now time.Time) int64 {
	return int64(math.Floor(ElapsedMinutes(sessionStart, now) * t.RatePerMinute()))
}

// Settle returns the cost of a finished session and the resulting
// balance, floored at zero. The account is never driven into debt.
func (t Tariff) Settle(balance int64, sessionStart, now time.Time) (cost int64, newBalance int64) {
	cost = t.Cost(sessionStart, now)
	newBalance = balance - cost
	if newBalance < 0 {
		newBalance = 0
	}
	return cost, newBalance
}

// PreviewRemaining returns the effective balance after the accrued spend
// and how many milliseconds of play it still buys. Read-only, safe to poll.
func (t Tariff) PreviewRemaining(balance int64, sessionStart, now time.Time) (effectiveBalance int64, remainingMs int64) {
	spent := t.Cost(sessionStart, now)
	effectiveBalance = balance - spent
	if effectiveBalance < 0 {
		effectiveBalance = 0
	}
	if t.RatePerHour > 0 {
		remainingMs = int64(float64(effectiveBalance) / float64(t.RatePerHour) * 3_600_000)
	}
	return effectiveBalance, remainingMs
}
