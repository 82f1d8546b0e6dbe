// Package observe provides the telemetry plumbing shared by the sampler and
// the admission gate: an OpenTelemetry tracer and meter, and a small JSON
// structured logger.
//
// It performs no I/O beyond exporter setup. Consumers pass the Observer's
// Logger and Meter into health.NewSampler and admission.NewGate.
package observe
