package health

import (
	"errors"
	"os"
	"testing"
)

func TestRuntimeMemory_WithoutProcfs(t *testing.T) {
	heap, rss := newRuntimeMemory(nil).ReadMemory()

	if heap == 0 {
		t.Error("heap used should be non-zero in a running test binary")
	}
	if rss == 0 {
		t.Error("rss fallback should report the runtime's mapped memory")
	}
	if rss < heap {
		t.Errorf("rss %d should not be below heap %d", rss, heap)
	}
}

func TestRuntimeMemory_Procfs(t *testing.T) {
	proc := &fakeProc{}
	proc.set(0, 0, 10)

	_, rss := newRuntimeMemory(proc).ReadMemory()
	if want := uint64(10 * os.Getpagesize()); rss != want {
		t.Fatalf("rss = %d, want %d", rss, want)
	}
}

func TestRuntimeMemory_ProcfsFailureIsNeutral(t *testing.T) {
	proc := &fakeProc{}
	proc.fail(errors.New("permission denied"))

	heap, rss := newRuntimeMemory(proc).ReadMemory()
	if rss != 0 {
		t.Errorf("rss = %d, want 0 on failed read", rss)
	}
	if heap == 0 {
		t.Error("heap should still be reported")
	}
}
