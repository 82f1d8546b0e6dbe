package admission

import (
	"math"
	"testing"

	"github.com/jonwraymond/underpressure/health"
)

func TestVerdict_String(t *testing.T) {
	tests := []struct {
		v    Verdict
		want string
	}{
		{Accept, "accept"},
		{Reject, "reject"},
		{Verdict(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Verdict(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		snap health.Snapshot
		th   Thresholds
		want Verdict
	}{
		{
			name: "no thresholds accepts anything",
			snap: health.Snapshot{EventLoopDelayMs: 1e9, HeapUsedBytes: math.MaxUint64, ResidentMemoryBytes: math.MaxUint64, UtilizationRatio: 1},
			want: Accept,
		},
		{
			name: "heap over limit",
			snap: health.Snapshot{HeapUsedBytes: 150_000_000},
			th:   Thresholds{MaxHeapUsedBytes: 100_000_000},
			want: Reject,
		},
		{
			name: "heap under limit",
			snap: health.Snapshot{HeapUsedBytes: 99_999_999},
			th:   Thresholds{MaxHeapUsedBytes: 100_000_000},
			want: Accept,
		},
		{
			name: "delay equal to limit is accepted",
			snap: health.Snapshot{EventLoopDelayMs: 50},
			th:   Thresholds{MaxEventLoopDelayMs: 50},
			want: Accept,
		},
		{
			name: "delay just over limit",
			snap: health.Snapshot{EventLoopDelayMs: 50.0001},
			th:   Thresholds{MaxEventLoopDelayMs: 50},
			want: Reject,
		},
		{
			name: "degenerate delay exceeds any delay limit",
			snap: health.Snapshot{EventLoopDelayMs: math.Inf(1)},
			th:   Thresholds{MaxEventLoopDelayMs: 1e12},
			want: Reject,
		},
		{
			name: "degenerate delay ignored when delay check disabled",
			snap: health.Snapshot{EventLoopDelayMs: math.Inf(1)},
			th:   Thresholds{MaxHeapUsedBytes: 10},
			want: Accept,
		},
		{
			name: "rss equal to limit is accepted",
			snap: health.Snapshot{ResidentMemoryBytes: 1 << 30},
			th:   Thresholds{MaxRSSBytes: 1 << 30},
			want: Accept,
		},
		{
			name: "rss over limit",
			snap: health.Snapshot{ResidentMemoryBytes: 1<<30 + 1},
			th:   Thresholds{MaxRSSBytes: 1 << 30},
			want: Reject,
		},
		{
			name: "utilization over limit",
			snap: health.Snapshot{UtilizationRatio: 0.96},
			th:   Thresholds{MaxUtilization: 0.95},
			want: Reject,
		},
		{
			name: "utilization at 1 with limit 1 is accepted",
			snap: health.Snapshot{UtilizationRatio: 1},
			th:   Thresholds{MaxUtilization: 1},
			want: Accept,
		},
		{
			name: "one exceeded threshold among several rejects",
			snap: health.Snapshot{EventLoopDelayMs: 1, HeapUsedBytes: 1, ResidentMemoryBytes: 500, UtilizationRatio: 0.1},
			th:   Thresholds{MaxEventLoopDelayMs: 10, MaxHeapUsedBytes: 10, MaxRSSBytes: 100, MaxUtilization: 0.5},
			want: Reject,
		},
		{
			name: "all within limits",
			snap: health.Snapshot{EventLoopDelayMs: 10, HeapUsedBytes: 10, ResidentMemoryBytes: 100, UtilizationRatio: 0.5},
			th:   Thresholds{MaxEventLoopDelayMs: 10, MaxHeapUsedBytes: 10, MaxRSSBytes: 100, MaxUtilization: 0.5},
			want: Accept,
		},
		{
			name: "neutral snapshot accepted",
			snap: health.Snapshot{},
			th:   Thresholds{MaxEventLoopDelayMs: 1, MaxHeapUsedBytes: 1, MaxRSSBytes: 1, MaxUtilization: 0.01},
			want: Accept,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.snap, tt.th); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Each indicator alone, with every other threshold enabled and satisfied.
func TestEvaluate_EachIndicator(t *testing.T) {
	th := Thresholds{MaxEventLoopDelayMs: 10, MaxHeapUsedBytes: 10, MaxRSSBytes: 10, MaxUtilization: 0.5}
	base := health.Snapshot{EventLoopDelayMs: 10, HeapUsedBytes: 10, ResidentMemoryBytes: 10, UtilizationRatio: 0.5}

	over := map[string]func(*health.Snapshot){
		"delay":       func(s *health.Snapshot) { s.EventLoopDelayMs = 11 },
		"heap":        func(s *health.Snapshot) { s.HeapUsedBytes = 11 },
		"rss":         func(s *health.Snapshot) { s.ResidentMemoryBytes = 11 },
		"utilization": func(s *health.Snapshot) { s.UtilizationRatio = 0.51 },
	}
	for name, mutate := range over {
		snap := base
		mutate(&snap)
		if got := Evaluate(snap, th); got != Reject {
			t.Errorf("%s over limit: Evaluate() = %v, want reject", name, got)
		}
	}

	if got := Evaluate(base, th); got != Accept {
		t.Errorf("all at limit: Evaluate() = %v, want accept", got)
	}
}

// Every subset of enabled thresholds against every breach pattern: reject
// iff some enabled indicator is over its limit.
func TestEvaluate_SubsetMatrix(t *testing.T) {
	const (
		delayBit = 1 << iota
		heapBit
		rssBit
		utilBit
	)
	limits := Thresholds{MaxEventLoopDelayMs: 50, MaxHeapUsedBytes: 1000, MaxRSSBytes: 2000, MaxUtilization: 0.5}

	for enabled := range 16 {
		var th Thresholds
		if enabled&delayBit != 0 {
			th.MaxEventLoopDelayMs = limits.MaxEventLoopDelayMs
		}
		if enabled&heapBit != 0 {
			th.MaxHeapUsedBytes = limits.MaxHeapUsedBytes
		}
		if enabled&rssBit != 0 {
			th.MaxRSSBytes = limits.MaxRSSBytes
		}
		if enabled&utilBit != 0 {
			th.MaxUtilization = limits.MaxUtilization
		}

		for breached := range 16 {
			// Unbreached indicators sit exactly on their limit.
			snap := health.Snapshot{
				EventLoopDelayMs:    limits.MaxEventLoopDelayMs,
				HeapUsedBytes:       limits.MaxHeapUsedBytes,
				ResidentMemoryBytes: limits.MaxRSSBytes,
				UtilizationRatio:    limits.MaxUtilization,
			}
			if breached&delayBit != 0 {
				snap.EventLoopDelayMs += 0.001
			}
			if breached&heapBit != 0 {
				snap.HeapUsedBytes++
			}
			if breached&rssBit != 0 {
				snap.ResidentMemoryBytes++
			}
			if breached&utilBit != 0 {
				snap.UtilizationRatio += 0.001
			}

			want := Accept
			if enabled&breached != 0 {
				want = Reject
			}
			if got := Evaluate(snap, th); got != want {
				t.Errorf("enabled=%04b breached=%04b: Evaluate() = %v, want %v", enabled, breached, got, want)
			}
		}
	}
}
