package health

import (
	"runtime"
	"runtime/metrics"
)

const (
	heapObjectsMetric = "/memory/classes/heap/objects:bytes"
	totalMemoryMetric = "/memory/classes/total:bytes"
)

// MemoryReader reports heap and resident memory in bytes.
type MemoryReader interface {
	ReadMemory() (heapUsed, rss uint64)
}

// runtimeMemory reads heap usage from runtime/metrics, which unlike
// runtime.ReadMemStats does not stop the world. Resident memory comes from
// procfs when available; otherwise the runtime's total mapped memory is
// used as the closest approximation.
type runtimeMemory struct {
	proc    procStatReader
	samples []metrics.Sample
}

func newRuntimeMemory(proc procStatReader) *runtimeMemory {
	return &runtimeMemory{
		proc: proc,
		samples: []metrics.Sample{
			{Name: heapObjectsMetric},
			{Name: totalMemoryMetric},
		},
	}
}

func (m *runtimeMemory) ReadMemory() (heapUsed, rss uint64) {
	metrics.Read(m.samples)

	heapUsed, ok := uint64Value(m.samples[0])
	if !ok {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		heapUsed = stats.HeapAlloc
	}

	if m.proc != nil {
		stat, err := m.proc.Stat()
		if err != nil {
			return heapUsed, 0
		}
		if resident := stat.ResidentMemory(); resident > 0 {
			return heapUsed, uint64(resident)
		}
		return heapUsed, 0
	}

	rss, _ = uint64Value(m.samples[1])
	return heapUsed, rss
}

func uint64Value(s metrics.Sample) (uint64, bool) {
	if s.Value.Kind() != metrics.KindUint64 {
		return 0, false
	}
	return s.Value.Uint64(), true
}
