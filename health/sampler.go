package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/underpressure/observe"
)

// Sampler refreshes a Snapshot every SampleInterval on a background
// goroutine. Reads never wait on the sampling tick.
//
// The goroutine does not keep the process alive: when main returns the
// process exits regardless. Stop releases it explicitly.
type Sampler struct {
	cfg    SamplerConfig
	cell   *SnapshotCell
	logger observe.Logger
	now    func() time.Time

	delay DelayMonitor
	util  UtilizationMonitor
	mem   MemoryReader

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// SamplerOption configures a Sampler.
type SamplerOption func(*samplerOptions)

type samplerOptions struct {
	logger    observe.Logger
	cell      *SnapshotCell
	now       func() time.Time
	histogram func() bool
	proc      func() (procStatReader, bool)
	delay     DelayMonitor
	util      UtilizationMonitor
	mem       MemoryReader
}

// WithLogger sets the logger. Default: observe.NopLogger()
func WithLogger(l observe.Logger) SamplerOption {
	return func(o *samplerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCell publishes snapshots into c instead of a private cell.
func WithCell(c *SnapshotCell) SamplerOption {
	return func(o *samplerOptions) {
		if c != nil {
			o.cell = c
		}
	}
}

// NewSampler validates cfg, probes platform capabilities once and returns
// a stopped sampler.
func NewSampler(cfg SamplerConfig, opts ...SamplerOption) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	o := samplerOptions{
		logger:    observe.NopLogger(),
		cell:      &SnapshotCell{},
		now:       time.Now,
		histogram: histogramSupported,
		proc:      probeProc,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Sampler{
		cfg:    cfg,
		cell:   o.cell,
		logger: o.logger.With(observe.F("component", "health.sampler")),
		now:    o.now,
	}

	proc, hasProc := o.proc()
	useHistogram := o.histogram()

	s.delay = o.delay
	if s.delay == nil {
		s.delay = newDelayMonitor(cfg, useHistogram)
	}
	s.util = o.util
	if s.util == nil {
		if hasProc {
			s.util = newProcUtilization(proc, s.now())
		} else {
			s.util = noUtilization{}
		}
	}
	s.mem = o.mem
	if s.mem == nil {
		if !hasProc {
			proc = nil
		}
		s.mem = newRuntimeMemory(proc)
	}

	s.logger.Debug(context.Background(), "sampler capabilities",
		observe.F("delay_histogram", useHistogram),
		observe.F("procfs", hasProc),
		observe.F("resolution_ms", durationMs(cfg.Resolution)),
		observe.F("sample_interval_ms", durationMs(cfg.SampleInterval)),
	)

	return s, nil
}

// Start creates a sampler and starts it.
func Start(ctx context.Context, cfg SamplerConfig, opts ...SamplerOption) (*Sampler, error) {
	s, err := NewSampler(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the sampling cycle. It returns immediately. The cycle ends
// when ctx is cancelled or Stop is called.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	now := s.now()
	s.delay.Enable(now)
	s.util.Enable(now)

	go s.run(ctx)

	s.logger.Info(ctx, "sampler started")
	return nil
}

func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)
	defer s.delay.Disable()

	ticker := time.NewTicker(s.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

// Stop ends the sampling cycle and waits for the goroutine to exit. It is
// idempotent; the last snapshot stays readable.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		s.delay.Disable()
		return
	}
	cancel()
	<-done
	s.logger.Info(context.Background(), "sampler stopped")
}

// Snapshot returns the latest completed tick's values without blocking.
func (s *Sampler) Snapshot() Snapshot {
	return s.cell.Load()
}

// Config returns the effective configuration.
func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// sample runs one tick: memory, delay, utilization, then one publish.
func (s *Sampler) sample(ctx context.Context) {
	now := s.now()
	snap := Snapshot{SampledAt: now}

	s.guard(ctx, "memory", func() {
		snap.HeapUsedBytes, snap.ResidentMemoryBytes = s.mem.ReadMemory()
	})
	s.guard(ctx, "delay", func() {
		snap.EventLoopDelayMs = s.delay.Delay(now)
	})
	s.guard(ctx, "utilization", func() {
		snap.UtilizationRatio = s.util.Utilization(now)
	})

	s.cell.Store(snap)
}

// guard runs fn and turns a panic into a warning. The indicator fn was
// filling keeps its zero value.
func (s *Sampler) guard(ctx context.Context, indicator string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn(ctx, "measurement failed",
				observe.F("indicator", indicator),
				observe.F("error", fmt.Sprint(r)),
			)
		}
	}()
	fn()
}
