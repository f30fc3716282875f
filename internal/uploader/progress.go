package uploader

import (
	"math/rand"
	"sync"
	"time"
)

// ProgressEstimator produces the percentage shown while a batch is in
// flight. The backend reports nothing until the whole batch is processed, so
// the number is simulated and must stay below 100 until the response lands.
// The coordinator snaps to 100 itself on success.
type ProgressEstimator interface {
	Reset()
	Advance() int
	Current() int
}

const progressCeiling = 90

// SimulatedEstimator ramps progress in random steps and parks just short of
// done until the real response arrives.
type SimulatedEstimator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	current int
}

// NewSimulatedEstimator creates an estimator starting at zero.
func NewSimulatedEstimator() *SimulatedEstimator {
	return &SimulatedEstimator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reset puts the simulation back to zero for a new batch.
func (e *SimulatedEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = 0
}

// Advance moves the simulation forward by a random step, never past the
// ceiling.
func (e *SimulatedEstimator) Advance() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current >= progressCeiling {
		return e.current
	}
	e.current += 5 + e.rng.Intn(11) // 5 to 15 percent per tick
	if e.current > progressCeiling {
		e.current = progressCeiling
	}
	return e.current
}

// Current returns the last simulated value without advancing.
func (e *SimulatedEstimator) Current() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}
