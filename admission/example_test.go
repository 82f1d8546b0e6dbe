package admission_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/jonwraymond/underpressure/admission"
	"github.com/jonwraymond/underpressure/health"
)

func ExampleEvaluate() {
	snap := health.Snapshot{HeapUsedBytes: 150_000_000}

	fmt.Println(admission.Evaluate(snap, admission.Thresholds{MaxHeapUsedBytes: 100_000_000}))
	fmt.Println(admission.Evaluate(snap, admission.Thresholds{MaxHeapUsedBytes: 150_000_000}))
	// Output:
	// reject
	// accept
}

func ExampleHTTPMiddleware() {
	cell := health.NewSnapshotCell(health.Snapshot{
		EventLoopDelayMs: 80,
		SampledAt:        time.Now(),
	})
	gate, err := admission.NewGate(cell, admission.Config{
		Thresholds: admission.Thresholds{MaxEventLoopDelayMs: 50},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	handler := admission.HTTPMiddleware(gate)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "done")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	fmt.Println(rec.Code, rec.Body.String())
	// Output:
	// 503 Service Unavailable
}

func ExampleNew() {
	gate, sampler, err := admission.New(context.Background(), admission.Config{
		Thresholds: admission.Thresholds{MaxEventLoopDelayMs: 1000},
		Rejection:  admission.Rejection{StatusCode: 480, Reason: "Temporarily Unavailable"},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer sampler.Stop()

	fmt.Println(gate.Rejection().StatusCode, gate.Rejection().Reason)
	// Output:
	// 480 Temporarily Unavailable
}
