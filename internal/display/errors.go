package display

import (
	"errors"
	"fmt"
)

var (
	// ErrMonitorNotFound indicates a named monitor is not in the detection snapshot.
	ErrMonitorNotFound = errors.New("monitor not found")

	// ErrInsufficientMonitors indicates mirror or extend was requested with fewer than two monitors.
	ErrInsufficientMonitors = errors.New("insufficient monitors")

	// ErrUnsupportedResolution indicates an override resolution the monitor does not support.
	ErrUnsupportedResolution = errors.New("unsupported resolution")

	// ErrInvalidPrimary indicates the requested primary is not a participating monitor.
	ErrInvalidPrimary = errors.New("invalid primary monitor")

	// ErrIncompatibleMirrorResolutions indicates the mirrored monitors cannot share a resolution.
	ErrIncompatibleMirrorResolutions = errors.New("incompatible mirror resolutions")

	// ErrInvalidDescriptor indicates a malformed detection snapshot.
	ErrInvalidDescriptor = errors.New("invalid monitor descriptor")

	ErrInvalidRotation = errors.New("invalid rotation")
	ErrUnknownMode     = errors.New("unknown display mode")
	ErrUnknownOrdering = errors.New("unknown extend ordering")
)

// LayoutError is returned by Plan. Err is always one of the package sentinels.
type LayoutError struct {
	Monitor string
	Detail  string
	Err     error
}

func (e *LayoutError) Error() string {
	msg := e.Err.Error()
	if e.Monitor != "" {
		msg = fmt.Sprintf("monitor %s: %s", e.Monitor, msg)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	return msg
}

func (e *LayoutError) Unwrap() error {
	return e.Err
}

func layoutErr(err error, monitor, format string, args ...any) *LayoutError {
	le := &LayoutError{Monitor: monitor, Err: err}
	if format != "" {
		le.Detail = fmt.Sprintf(format, args...)
	}
	return le
}
