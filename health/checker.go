package health

import (
	"context"
	"fmt"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	// Status is the health status.
	Status Status

	// Message provides additional context about the status.
	Message string

	// Details contains arbitrary metadata about the check.
	Details map[string]any

	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Error is the error if the check failed.
	Error error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{
		Status:    StatusDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{
		Status:    StatusUnhealthy,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts an ordinary function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string {
	return f.name
}

func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}

// PressureChecker reports a Source's latest snapshot as a health Result.
// It reads the snapshot only; it never triggers a measurement.
type PressureChecker struct {
	src           Source
	underPressure func(Snapshot) bool
}

// NewPressureChecker builds a checker that is unhealthy whenever
// underPressure returns true for the current snapshot. A nil predicate
// never reports pressure.
func NewPressureChecker(src Source, underPressure func(Snapshot) bool) *PressureChecker {
	if underPressure == nil {
		underPressure = func(Snapshot) bool { return false }
	}
	return &PressureChecker{src: src, underPressure: underPressure}
}

// Name returns "pressure".
func (c *PressureChecker) Name() string {
	return "pressure"
}

// Check returns Degraded before the first sample, Unhealthy under pressure
// and Healthy otherwise.
func (c *PressureChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", fmt.Errorf("%w: %w", ErrCheckFailed, ctx.Err()))
	default:
	}

	snap := c.src.Snapshot()
	details := SnapshotDetails(snap)

	if snap.SampledAt.IsZero() {
		return Degraded("no sample yet").WithDetails(details)
	}
	if c.underPressure(snap) {
		return Unhealthy(
			fmt.Sprintf("under pressure: delay %.1fms, heap %d bytes, rss %d bytes, utilization %.2f",
				snap.EventLoopDelayMs, snap.HeapUsedBytes, snap.ResidentMemoryBytes, snap.UtilizationRatio),
			ErrUnderPressure,
		).WithDetails(details)
	}
	return Healthy("within thresholds").WithDetails(details)
}

// SnapshotDetails renders a snapshot as Result details. A degenerate delay
// is reported as the string "Inf" so it survives JSON encoding.
func SnapshotDetails(s Snapshot) map[string]any {
	var delay any = s.EventLoopDelayMs
	if s.DelayDegenerate() {
		delay = "Inf"
	}
	details := map[string]any{
		"event_loop_delay_ms":   delay,
		"heap_used_bytes":       s.HeapUsedBytes,
		"resident_memory_bytes": s.ResidentMemoryBytes,
		"utilization_ratio":     s.UtilizationRatio,
	}
	if !s.SampledAt.IsZero() {
		details["sampled_at"] = s.SampledAt.UTC().Format(time.RFC3339Nano)
	}
	return details
}
