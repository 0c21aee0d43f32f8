package vm

import (
	"sync"
	"time"
)

// VirtualClock supplies the player's notion of time in milliseconds since
// an arbitrary epoch. Timers and frame advancement read only this clock.
type VirtualClock interface {
	Elapsed() uint64
}

// SystemClock measures wall time since its creation.
type SystemClock struct {
	start time.Time
}

// NewSystemClock starts a clock at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Elapsed() uint64 {
	return uint64(time.Since(c.start) / time.Millisecond)
}

// ManualClock only moves when told to. Hosts use it for deterministic
// playback and tests use it to drive timers.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

func (c *ManualClock) Elapsed() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms milliseconds.
func (c *ManualClock) Advance(ms uint64) {
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

// Set moves the clock to an absolute time.
func (c *ManualClock) Set(ms uint64) {
	c.mu.Lock()
	c.now = ms
	c.mu.Unlock()
}
