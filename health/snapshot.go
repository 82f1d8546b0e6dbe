package health

import (
	"math"
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time bundle of the four health indicators.
// The zero value is the neutral snapshot: no delay, no memory pressure,
// no utilization.
type Snapshot struct {
	// EventLoopDelayMs is the scheduling lag in milliseconds. Never negative;
	// +Inf marks a degenerate measurement.
	EventLoopDelayMs float64

	// HeapUsedBytes is the heap in use.
	HeapUsedBytes uint64

	// ResidentMemoryBytes is the resident set size.
	ResidentMemoryBytes uint64

	// UtilizationRatio is in [0,1].
	UtilizationRatio float64

	// SampledAt is when the tick that produced this snapshot ran.
	// Zero until the first tick completes.
	SampledAt time.Time
}

// DelayDegenerate reports whether the delay measurement was degenerate.
func (s Snapshot) DelayDegenerate() bool {
	return math.IsInf(s.EventLoopDelayMs, 1)
}

// Source provides the latest Snapshot.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Snapshot must not block and must not perform I/O.
type Source interface {
	Snapshot() Snapshot
}

// SnapshotCell holds the latest Snapshot for one writer and many readers.
// A Store is published as a single pointer swap, so a reader sees either
// the previous tick or the new one, never a mix. The zero value is ready
// to use and reads as the neutral snapshot.
type SnapshotCell struct {
	p atomic.Pointer[Snapshot]
}

// NewSnapshotCell returns a cell preloaded with s. Useful for injecting a
// synthetic snapshot.
func NewSnapshotCell(s Snapshot) *SnapshotCell {
	c := &SnapshotCell{}
	c.Store(s)
	return c
}

// Load returns the latest stored snapshot.
func (c *SnapshotCell) Load() Snapshot {
	if p := c.p.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}

// Store publishes s.
func (c *SnapshotCell) Store(s Snapshot) {
	c.p.Store(&s)
}

// Snapshot implements Source.
func (c *SnapshotCell) Snapshot() Snapshot {
	return c.Load()
}
