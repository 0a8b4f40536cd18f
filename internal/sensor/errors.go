package sensor

import "errors"

// Sentinel errors for sensor sources.
// Use errors.Is() to check error types.
var (
	// ErrUnavailable indicates the underlying hardware or kernel
	// interface cannot be read on this host.
	ErrUnavailable = errors.New("sensor: source unavailable")

	// ErrNoSources indicates a collector was built with no enabled sources.
	ErrNoSources = errors.New("sensor: no sources enabled")
)
