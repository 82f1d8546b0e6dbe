package health

import (
	"sync"
	"time"

	"github.com/prometheus/procfs"
)

func withClock(now func() time.Time) SamplerOption {
	return func(o *samplerOptions) { o.now = now }
}

func withHistogramSupport(ok bool) SamplerOption {
	return func(o *samplerOptions) { o.histogram = func() bool { return ok } }
}

func withProc(p procStatReader, ok bool) SamplerOption {
	return func(o *samplerOptions) {
		o.proc = func() (procStatReader, bool) { return p, ok }
	}
}

func withProbes(d DelayMonitor, u UtilizationMonitor, m MemoryReader) SamplerOption {
	return func(o *samplerOptions) {
		o.delay, o.util, o.mem = d, u, m
	}
}

// fakeProc serves a settable procfs stat.
type fakeProc struct {
	mu   sync.Mutex
	stat procfs.ProcStat
	err  error
}

func (p *fakeProc) Stat() (procfs.ProcStat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stat, p.err
}

func (p *fakeProc) set(utime, stime uint, rssPages int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stat = procfs.ProcStat{UTime: utime, STime: stime, RSS: rssPages}
	p.err = nil
}

func (p *fakeProc) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

type fixedDelay float64

func (d fixedDelay) Enable(time.Time)        {}
func (d fixedDelay) Delay(time.Time) float64 { return float64(d) }
func (d fixedDelay) Disable()                {}

type fixedUtilization float64

func (u fixedUtilization) Enable(time.Time)             {}
func (u fixedUtilization) Utilization(time.Time) float64 { return float64(u) }

type fixedMemory struct{ heap, rss uint64 }

func (m fixedMemory) ReadMemory() (uint64, uint64) { return m.heap, m.rss }

type panicDelay struct{}

func (panicDelay) Enable(time.Time)        {}
func (panicDelay) Delay(time.Time) float64 { panic("histogram gone") }
func (panicDelay) Disable()                {}

// orderRecorder records the order in which a tick reads each probe.
type orderRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *orderRecorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *orderRecorder) Enable(time.Time)        {}
func (r *orderRecorder) Disable()                {}
func (r *orderRecorder) Delay(time.Time) float64 { r.add("delay"); return 1 }
func (r *orderRecorder) Utilization(time.Time) float64 {
	r.add("utilization")
	return 0.1
}
func (r *orderRecorder) ReadMemory() (uint64, uint64) {
	r.add("memory")
	return 1, 2
}
