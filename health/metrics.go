package health

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/metric"
)

// Gauge names exported by RegisterGauges.
const (
	MetricEventLoopDelay       = "process.eventloop.delay_ms"
	MetricHeapUsed             = "process.heap.used_bytes"
	MetricResidentMemory       = "process.memory.rss_bytes"
	MetricEventLoopUtilization = "process.eventloop.utilization"
)

// RegisterGauges exposes src's latest snapshot as observable gauges. The
// callback reads the snapshot once per collection, so all four gauges come
// from the same tick. A degenerate delay is not reported for that
// collection. Unregister the returned registration to stop reporting.
func RegisterGauges(meter metric.Meter, src Source) (metric.Registration, error) {
	delay, err := meter.Float64ObservableGauge(MetricEventLoopDelay,
		metric.WithDescription("Scheduling lag beyond the probe resolution"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	heap, err := meter.Int64ObservableGauge(MetricHeapUsed,
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	rss, err := meter.Int64ObservableGauge(MetricResidentMemory,
		metric.WithDescription("Resident set size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	util, err := meter.Float64ObservableGauge(MetricEventLoopUtilization,
		metric.WithDescription("Fraction of scheduler capacity spent running work"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := src.Snapshot()
		if !snap.DelayDegenerate() {
			o.ObserveFloat64(delay, snap.EventLoopDelayMs)
		}
		o.ObserveInt64(heap, clampInt64(snap.HeapUsedBytes))
		o.ObserveInt64(rss, clampInt64(snap.ResidentMemoryBytes))
		o.ObserveFloat64(util, snap.UtilizationRatio)
		return nil
	}, delay, heap, rss, util)
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
