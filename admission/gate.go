package admission

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/underpressure/health"
	"github.com/jonwraymond/underpressure/observe"
)

// Request is the host pipeline's view of one incoming request.
//
// Contract:
//   - Respond sends a protocol-level error reply to the originator.
//   - EndSession terminates the session the request belongs to. It should be
//     idempotent; returning ErrSessionClosed for an already closed session
//     is not treated as a failure.
//   - Neither is called on accepted requests.
type Request interface {
	Respond(ctx context.Context, r Rejection) error
	EndSession(ctx context.Context) error
}

// Next continues the host pipeline with the accepted request.
type Next func(ctx context.Context)

// Gate decides per request whether to accept work. It holds no per-request
// state and is safe for concurrent use.
type Gate struct {
	src        health.Source
	thresholds Thresholds
	rejection  Rejection

	logger  observe.Logger
	tracer  trace.Tracer
	metrics *metrics
}

// GateOption configures a Gate.
type GateOption func(*gateOptions)

type gateOptions struct {
	logger observe.Logger
	meter  metric.Meter
	tracer trace.Tracer
}

// WithLogger sets the logger. Default: observe.NopLogger()
func WithLogger(l observe.Logger) GateOption {
	return func(o *gateOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMeter records verdict counters on m. Default: no-op meter.
func WithMeter(m metric.Meter) GateOption {
	return func(o *gateOptions) {
		if m != nil {
			o.meter = m
		}
	}
}

// WithTracer wraps each decision in a span. Default: no-op tracer.
func WithTracer(t trace.Tracer) GateOption {
	return func(o *gateOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

func applyOptions(opts []GateOption) gateOptions {
	o := gateOptions{
		logger: observe.NopLogger(),
		meter:  noop.NewMeterProvider().Meter("noop"),
		tracer: tracenoop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewGate builds a gate over src. cfg.Sampler is ignored here; it only
// matters to New.
func NewGate(src health.Source, cfg Config, opts ...GateOption) (*Gate, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	o := applyOptions(opts)
	m, err := newMetrics(o.meter)
	if err != nil {
		return nil, fmt.Errorf("admission: create metrics: %w", err)
	}

	return &Gate{
		src:        src,
		thresholds: cfg.Thresholds,
		rejection:  cfg.Rejection,
		logger:     o.logger.With(observe.F("component", "admission.gate")),
		tracer:     o.tracer,
		metrics:    m,
	}, nil
}

// New validates cfg, starts a sampler and returns a gate reading from it.
// The caller owns the sampler and should Stop it on shutdown.
func New(ctx context.Context, cfg Config, opts ...GateOption) (*Gate, *health.Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	o := applyOptions(opts)
	sampler, err := health.Start(ctx, cfg.Sampler, health.WithLogger(o.logger))
	if err != nil {
		return nil, nil, err
	}

	gate, err := NewGate(sampler, cfg, opts...)
	if err != nil {
		sampler.Stop()
		return nil, nil, err
	}
	return gate, sampler, nil
}

// Evaluate returns the verdict for the current snapshot without side
// effects.
func (g *Gate) Evaluate() Verdict {
	return Evaluate(g.src.Snapshot(), g.thresholds)
}

// Handle is the request-path entry point. On Accept it calls next. On
// Reject it responds with the configured Rejection, ends the session and
// does not call next.
func (g *Gate) Handle(ctx context.Context, req Request, next Next) Verdict {
	snap := g.src.Snapshot()
	verdict := Evaluate(snap, g.thresholds)

	spanCtx, span := g.tracer.Start(ctx, "admission.handle",
		trace.WithAttributes(attribute.String("admission.verdict", verdict.String())),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	g.metrics.recordVerdict(spanCtx, verdict)

	if verdict == Accept {
		span.End()
		next(ctx)
		return Accept
	}
	defer span.End()

	g.logger.Debug(spanCtx, "request rejected",
		observe.F("event_loop_delay_ms", delayField(snap)),
		observe.F("heap_used_bytes", snap.HeapUsedBytes),
		observe.F("resident_memory_bytes", snap.ResidentMemoryBytes),
		observe.F("utilization_ratio", snap.UtilizationRatio),
	)

	if err := req.Respond(spanCtx, g.rejection.Clone()); err != nil {
		g.metrics.recordFailure(spanCtx, "respond")
		span.RecordError(err)
		g.logger.Warn(spanCtx, "rejection response failed", observe.F("error", err.Error()))
	}
	if err := req.EndSession(spanCtx); err != nil && !errors.Is(err, ErrSessionClosed) {
		g.metrics.recordFailure(spanCtx, "end_session")
		span.RecordError(err)
		g.logger.Warn(spanCtx, "session termination failed", observe.F("error", err.Error()))
	}
	return Reject
}

// Rejection returns the effective rejection response.
func (g *Gate) Rejection() Rejection {
	return g.rejection.Clone()
}

// Thresholds returns the configured thresholds.
func (g *Gate) Thresholds() Thresholds {
	return g.thresholds
}

// Checker exposes the gate's view as a health check named "pressure", for
// readiness probes.
func (g *Gate) Checker() health.Checker {
	return health.NewPressureChecker(g.src, func(s health.Snapshot) bool {
		return Evaluate(s, g.thresholds) == Reject
	})
}

// delayField keeps +Inf out of JSON log entries.
func delayField(s health.Snapshot) any {
	if s.DelayDegenerate() {
		return "Inf"
	}
	return s.EventLoopDelayMs
}
