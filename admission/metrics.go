package admission

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names recorded by the gate.
const (
	MetricRequests       = "admission.requests"
	MetricRejectFailures = "admission.reject.failures"
)

type metrics struct {
	requests metric.Int64Counter
	failures metric.Int64Counter

	acceptOpt metric.AddOption
	rejectOpt metric.AddOption
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	requests, err := meter.Int64Counter(MetricRequests,
		metric.WithDescription("Requests evaluated by the admission gate"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(MetricRejectFailures,
		metric.WithDescription("Rejections whose response or session termination failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		requests:  requests,
		failures:  failures,
		acceptOpt: metric.WithAttributes(attribute.String("verdict", Accept.String())),
		rejectOpt: metric.WithAttributes(attribute.String("verdict", Reject.String())),
	}, nil
}

func (m *metrics) recordVerdict(ctx context.Context, v Verdict) {
	if v == Reject {
		m.requests.Add(ctx, 1, m.rejectOpt)
		return
	}
	m.requests.Add(ctx, 1, m.acceptOpt)
}

// recordFailure counts a failed reject step: "respond" or "end_session".
func (m *metrics) recordFailure(ctx context.Context, stage string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
