package admission

import "github.com/jonwraymond/underpressure/health"

// Verdict is the outcome of an admission decision.
type Verdict int

const (
	// Accept passes the request downstream.
	Accept Verdict = iota
	// Reject answers the request with the Rejection and ends its session.
	Reject
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Evaluate returns Reject if any enabled threshold is strictly exceeded by
// s. A value equal to its threshold is accepted. A degenerate (+Inf) delay
// exceeds any enabled delay threshold.
func Evaluate(s health.Snapshot, t Thresholds) Verdict {
	if t.MaxEventLoopDelayMs > 0 && s.EventLoopDelayMs > t.MaxEventLoopDelayMs {
		return Reject
	}
	if t.MaxHeapUsedBytes > 0 && s.HeapUsedBytes > t.MaxHeapUsedBytes {
		return Reject
	}
	if t.MaxRSSBytes > 0 && s.ResidentMemoryBytes > t.MaxRSSBytes {
		return Reject
	}
	if t.MaxUtilization > 0 && s.UtilizationRatio > t.MaxUtilization {
		return Reject
	}
	return Accept
}
