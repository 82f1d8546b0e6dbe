package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrUnderPressure indicates the process exceeded a configured threshold.
	ErrUnderPressure = errors.New("health: under pressure")

	// ErrInvalidConfig indicates a SamplerConfig value is out of range.
	ErrInvalidConfig = errors.New("health: invalid sampler config")

	// ErrAlreadyStarted is returned when Start is called on a running sampler.
	ErrAlreadyStarted = errors.New("health: sampler already started")

	// ErrStopped is returned when Start is called after Stop.
	ErrStopped = errors.New("health: sampler stopped")
)
