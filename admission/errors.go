package admission

import "errors"

// Sentinel errors for admission operations.
var (
	// ErrInvalidConfig indicates a Config value is out of range.
	ErrInvalidConfig = errors.New("admission: invalid config")

	// ErrNilSource is returned when NewGate is given no snapshot source.
	ErrNilSource = errors.New("admission: snapshot source is nil")

	// ErrSessionClosed may be returned by Request.EndSession when the session
	// is already gone. The gate treats it as success.
	ErrSessionClosed = errors.New("admission: session already closed")
)
