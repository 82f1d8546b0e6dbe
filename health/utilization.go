package health

import (
	"runtime"
	"time"

	"github.com/prometheus/procfs"
)

// UtilizationMonitor measures the fraction of scheduler capacity spent
// running work since the previous call. Enable sets the reference point
// the first call measures from.
type UtilizationMonitor interface {
	Enable(now time.Time)
	Utilization(now time.Time) float64
}

// procStatReader is the subset of procfs.Proc the probes need.
type procStatReader interface {
	Stat() (procfs.ProcStat, error)
}

// probeProc returns the current process handle if procfs is readable.
func probeProc() (procStatReader, bool) {
	proc, err := procfs.Self()
	if err != nil {
		return nil, false
	}
	if _, err := proc.Stat(); err != nil {
		return nil, false
	}
	return proc, true
}

// procUtilization divides process CPU time by the wall time available to
// GOMAXPROCS threads over the same window.
type procUtilization struct {
	proc     procStatReader
	procs    func() int
	lastCPU  float64
	lastWall time.Time
}

func newProcUtilization(proc procStatReader, now time.Time) *procUtilization {
	u := &procUtilization{
		proc:  proc,
		procs: func() int { return runtime.GOMAXPROCS(0) },
	}
	u.Enable(now)
	return u
}

// Enable moves the reference point to now and the current CPU time.
func (u *procUtilization) Enable(now time.Time) {
	u.lastWall = now
	if stat, err := u.proc.Stat(); err == nil {
		u.lastCPU = stat.CPUTime()
	}
}

// Utilization returns a value clamped to [0,1]. A failed read returns 0 and
// keeps the previous reference point.
func (u *procUtilization) Utilization(now time.Time) float64 {
	stat, err := u.proc.Stat()
	if err != nil {
		return 0
	}

	cpu := stat.CPUTime()
	capacity := now.Sub(u.lastWall).Seconds() * float64(u.procs())
	busy := cpu - u.lastCPU

	u.lastCPU = cpu
	u.lastWall = now

	if capacity <= 0 || busy <= 0 {
		return 0
	}
	return min(busy/capacity, 1)
}

// noUtilization is used where process CPU time is unavailable.
type noUtilization struct{}

func (noUtilization) Enable(time.Time)             {}
func (noUtilization) Utilization(time.Time) float64 { return 0 }
