// Package admission rejects new work while the process is under pressure.
//
// A Gate reads the latest health.Snapshot and compares it with a set of
// Thresholds. Any enabled threshold that is strictly exceeded rejects the
// request; a zero threshold is never enforced. Rejected requests receive a
// fixed Rejection response and their session is ended. Accepted requests
// are passed downstream untouched.
//
// # Usage
//
//	gate, sampler, err := admission.New(ctx, admission.Config{
//	    Thresholds: admission.Thresholds{
//	        MaxEventLoopDelayMs: 50,
//	        MaxHeapUsedBytes:    512 << 20,
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer sampler.Stop()
//
//	handler = admission.HTTPMiddleware(gate)(handler)
//
// # Host pipelines
//
// The gate talks to the host through the Request interface: Respond emits
// the protocol-level error reply and EndSession terminates the session.
// Adapters are provided for net/http (HTTPMiddleware) and gRPC
// (UnaryServerInterceptor, StreamServerInterceptor). Other transports
// implement Request and call Gate.Handle directly.
//
// Handle never blocks on sampling and never returns an error. Failures to
// respond or to end the session are logged and counted. EndSession returning
// ErrSessionClosed is not a failure.
package admission
