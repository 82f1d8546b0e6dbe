package admission

import (
	"fmt"
	"maps"
	"math"

	"github.com/jonwraymond/underpressure/health"
)

// Rejection defaults.
const (
	DefaultStatusCode = 503
	DefaultReason     = "Service Unavailable"
)

// Thresholds are the maximum tolerated indicator values. Zero disables a
// threshold.
type Thresholds struct {
	// MaxEventLoopDelayMs rejects when the scheduling lag exceeds it.
	MaxEventLoopDelayMs float64

	// MaxHeapUsedBytes rejects when heap in use exceeds it.
	MaxHeapUsedBytes uint64

	// MaxRSSBytes rejects when resident memory exceeds it.
	MaxRSSBytes uint64

	// MaxUtilization rejects when utilization exceeds it. Must be in [0,1].
	MaxUtilization float64
}

// Enabled reports whether any threshold is configured.
func (t Thresholds) Enabled() bool {
	return t.MaxEventLoopDelayMs > 0 || t.MaxHeapUsedBytes > 0 || t.MaxRSSBytes > 0 || t.MaxUtilization > 0
}

// Rejection is the response sent to a rejected request's originator.
type Rejection struct {
	// StatusCode is the protocol status code. Default: 503
	StatusCode int

	// Reason is the status text. Default: "Service Unavailable"
	Reason string

	// Headers are extra response headers. Default: none
	Headers map[string]string
}

// Clone returns a copy whose Headers map is not shared.
func (r Rejection) Clone() Rejection {
	r.Headers = maps.Clone(r.Headers)
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	return r
}

// Config is everything a gate installation needs. It is read once at
// construction.
type Config struct {
	Thresholds Thresholds
	Rejection  Rejection
	Sampler    health.SamplerConfig
}

// Validate checks ranges. Zero values are valid and mean default or disabled.
func (c Config) Validate() error {
	t := c.Thresholds
	if t.MaxEventLoopDelayMs < 0 || math.IsNaN(t.MaxEventLoopDelayMs) || math.IsInf(t.MaxEventLoopDelayMs, 0) {
		return fmt.Errorf("%w: max event loop delay must be a non-negative number, got %v", ErrInvalidConfig, t.MaxEventLoopDelayMs)
	}
	if t.MaxUtilization < 0 || t.MaxUtilization > 1 || math.IsNaN(t.MaxUtilization) {
		return fmt.Errorf("%w: max utilization must be between 0 and 1, got %v", ErrInvalidConfig, t.MaxUtilization)
	}

	r := c.Rejection
	// Informational and success codes would reach the client as a success.
	if r.StatusCode != 0 && (r.StatusCode < 300 || r.StatusCode > 699) {
		return fmt.Errorf("%w: status code must be between 300 and 699, got %d", ErrInvalidConfig, r.StatusCode)
	}
	for k := range r.Headers {
		if k == "" {
			return fmt.Errorf("%w: rejection header name is empty", ErrInvalidConfig)
		}
	}

	if err := c.Sampler.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// WithDefaults returns c with unset rejection and sampler fields defaulted.
func (c Config) WithDefaults() Config {
	if c.Rejection.StatusCode == 0 {
		c.Rejection.StatusCode = DefaultStatusCode
	}
	if c.Rejection.Reason == "" {
		c.Rejection.Reason = DefaultReason
	}
	c.Rejection = c.Rejection.Clone()
	c.Sampler = c.Sampler.WithDefaults()
	return c
}
