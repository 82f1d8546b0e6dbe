// Package health samples process-level health indicators in the background
// and publishes them as a Snapshot that request paths can read without
// blocking.
//
// # Indicators
//
// Each sampling tick refreshes four values together:
//
//   - EventLoopDelayMs: scheduling lag beyond the configured resolution.
//     +Inf means the measurement was degenerate for that tick.
//   - HeapUsedBytes: bytes occupied by live and not-yet-swept heap objects.
//   - ResidentMemoryBytes: resident set size of the process.
//   - UtilizationRatio: fraction of scheduler capacity spent running work,
//     0 where the platform cannot report process CPU time.
//
// # Basic Usage
//
//	sampler, err := health.NewSampler(health.SamplerConfig{
//	    Resolution:     10 * time.Millisecond,
//	    SampleInterval: time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := sampler.Start(ctx); err != nil {
//	    return err
//	}
//	defer sampler.Stop()
//
//	snap := sampler.Snapshot() // never blocks; zero before the first tick
//
// # Probes
//
// The sampler exposes its view through the Checker interface so it can be
// mounted on liveness and readiness endpoints:
//
//	checker := health.NewPressureChecker(sampler, func(s health.Snapshot) bool {
//	    return s.HeapUsedBytes > 512<<20
//	})
//	health.RegisterHandlers(mux, checker)
package health
