// Package pause holds the cancellable waits and random draws the simulation tasks share.
package pause

import (
	"context"
	"math/rand"
	"time"
)

// Sleep waits for d or until ctx is done. It reports whether the full duration passed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Chance reports true with probability p. p <= 0 never fires, p >= 1 always does.
func Chance(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// NewRand returns a source for one task. Tasks never share a *rand.Rand.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // simulation randomness
}
