package health

import (
	"fmt"
	"time"
)

// Sampler defaults.
const (
	DefaultResolution     = 10 * time.Millisecond
	DefaultSampleInterval = time.Second
)

// SamplerConfig tunes the background sampler.
type SamplerConfig struct {
	// Resolution is the wake period of the delay histogram probe. The mean
	// measured wake interval minus Resolution is the reported delay.
	// Default: 10ms
	Resolution time.Duration

	// SampleInterval is the period of the sampling tick.
	// Default: 1s
	SampleInterval time.Duration
}

// Validate rejects negative durations. Zero means default.
func (c SamplerConfig) Validate() error {
	if c.Resolution < 0 {
		return fmt.Errorf("%w: resolution must be positive, got %s", ErrInvalidConfig, c.Resolution)
	}
	if c.SampleInterval < 0 {
		return fmt.Errorf("%w: sample interval must be positive, got %s", ErrInvalidConfig, c.SampleInterval)
	}
	return nil
}

// WithDefaults returns c with zero fields replaced by their defaults.
func (c SamplerConfig) WithDefaults() SamplerConfig {
	if c.Resolution == 0 {
		c.Resolution = DefaultResolution
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = DefaultSampleInterval
	}
	return c
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
