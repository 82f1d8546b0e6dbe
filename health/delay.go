package health

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// DelayMonitor measures scheduling lag. A sampler uses exactly one
// implementation for its whole lifetime.
//
// Contract:
// - Delay is called only from the sampling goroutine.
// - Delay returns milliseconds, never negative; +Inf when degenerate.
// - Disable is idempotent.
type DelayMonitor interface {
	Enable(now time.Time)
	Delay(now time.Time) float64
	Disable()
}

// histogramSupported reports whether the platform can host the dedicated
// probe goroutine. js and wasip1 run every goroutine on one thread without
// preemption, so a probe would steal time from request handling.
func histogramSupported() bool {
	switch runtime.GOOS {
	case "js", "wasip1":
		return false
	default:
		return true
	}
}

func newDelayMonitor(cfg SamplerConfig, supported bool) DelayMonitor {
	if supported {
		return newHistogramDelay(cfg.Resolution)
	}
	return newDriftDelay(cfg.SampleInterval)
}

// delayHistogram accumulates observed probe wake intervals.
type delayHistogram struct {
	mu    sync.Mutex
	count int64
	sum   time.Duration
}

func (h *delayHistogram) record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += d
}

// meanAndReset returns the mean interval in milliseconds and clears the
// histogram. With no samples the mean is NaN.
func (h *delayHistogram) meanAndReset() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	mean := durationMs(h.sum) / float64(h.count)
	h.count, h.sum = 0, 0
	return mean
}

// histogramDelay wakes every resolution and records how long each wake
// actually took. A scheduler that cannot run the probe on time stretches
// the intervals, so mean - resolution approximates the lag.
type histogramDelay struct {
	resolution time.Duration
	hist       delayHistogram

	enabled  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newHistogramDelay(resolution time.Duration) *histogramDelay {
	return &histogramDelay{
		resolution: resolution,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *histogramDelay) Enable(time.Time) {
	if h.enabled.CompareAndSwap(false, true) {
		go h.probe()
	}
}

func (h *histogramDelay) probe() {
	defer close(h.done)

	ticker := time.NewTicker(h.resolution)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			// The tick's own timestamp is when it was due, not when the
			// probe got to run, so read the clock again.
			now := time.Now()
			h.hist.record(now.Sub(last))
			last = now
		}
	}
}

func (h *histogramDelay) Delay(time.Time) float64 {
	return delayFromMean(h.hist.meanAndReset(), durationMs(h.resolution))
}

// Disable stops the probe and waits for it to exit. Safe to call without a
// prior Enable.
func (h *histogramDelay) Disable() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	if h.enabled.Load() {
		<-h.done
	}
}

// delayFromMean clamps mean - resolution at zero and maps NaN to +Inf.
// math.Max propagates NaN, so an empty histogram reaches the NaN check.
func delayFromMean(meanMs, resolutionMs float64) float64 {
	delay := math.Max(0, meanMs-resolutionMs)
	if math.IsNaN(delay) {
		return math.Inf(1)
	}
	return delay
}

// driftDelay measures how late the sampling tick itself fires.
type driftDelay struct {
	interval  time.Duration
	lastCheck time.Time
}

func newDriftDelay(interval time.Duration) *driftDelay {
	return &driftDelay{interval: interval}
}

func (d *driftDelay) Enable(now time.Time) {
	d.lastCheck = now
}

func (d *driftDelay) Delay(now time.Time) float64 {
	elapsed := now.Sub(d.lastCheck) - d.interval
	d.lastCheck = now
	return math.Max(0, durationMs(elapsed))
}

func (d *driftDelay) Disable() {}
