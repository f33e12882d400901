package router

import (
	"fmt"
	"sync"
)

// HopLimiter enforces a maximum number of routing/dispatch cycles per turn
// so a misbehaving classifier or handoff loop terminates instead of spinning.
type HopLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewHopLimiter creates a new limiter with a max number of hops.
// If max == 0, unlimited hops are allowed.
func NewHopLimiter(max int) *HopLimiter {
	return &HopLimiter{max: max}
}

// Increment increases the hop counter and returns an error if the limit is
// exceeded.
func (hl *HopLimiter) Increment() error {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	hl.count++
	if hl.max > 0 && hl.count > hl.max {
		return fmt.Errorf("exceeded max routing hops: %d", hl.max)
	}

	return nil
}

// Count returns the current number of hops taken.
func (hl *HopLimiter) Count() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	return hl.count
}

// Remaining returns how many hops are left before hitting the limit.
func (hl *HopLimiter) Remaining() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if hl.max == 0 {
		return -1 // unlimited
	}

	return hl.max - hl.count
}
