package simloop

import (
	"math"
	"sync/atomic"
	"time"
)

// Clock reports wall time in seconds since its origin
type Clock interface {
	Now() float64
}

// WallClock is a monotonic Clock anchored at construction
type WallClock struct {
	origin time.Time
}

// NewWallClock creates a clock whose origin is the current instant
func NewWallClock() *WallClock {
	return &WallClock{origin: time.Now()}
}

// Now returns seconds elapsed since the clock origin
func (c *WallClock) Now() float64 {
	return time.Since(c.origin).Seconds()
}

// ManualClock is a Clock driven explicitly by tests and headless tooling
type ManualClock struct {
	bits atomic.Uint64
}

// NewManualClock creates a manual clock reading start seconds
func NewManualClock(start float64) *ManualClock {
	c := &ManualClock{}
	c.Set(start)
	return c
}

// Now returns the current manual reading
func (c *ManualClock) Now() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Set moves the clock to an absolute reading
func (c *ManualClock) Set(seconds float64) {
	c.bits.Store(math.Float64bits(seconds))
}

// Advance moves the clock forward by d seconds
func (c *ManualClock) Advance(d float64) {
	for {
		old := c.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + d)
		if c.bits.CompareAndSwap(old, next) {
			return
		}
	}
}
