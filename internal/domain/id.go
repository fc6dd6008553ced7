package domain

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator issues task ids derived from the creation timestamp in Unix
// milliseconds. Two tasks created within the same millisecond, or a clock
// that moves backwards, still receive distinct, increasing ids.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator creates a generator reading the given clock. A nil clock
// uses time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id that is not present in existing.
func (g *IDGenerator) Next(existing TaskList) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	candidate := g.now().UnixMilli()
	if candidate <= g.last {
		candidate = g.last + 1
	}
	for existing.Contains(strconv.FormatInt(candidate, 10)) {
		candidate++
	}
	g.last = candidate
	return strconv.FormatInt(candidate, 10)
}
