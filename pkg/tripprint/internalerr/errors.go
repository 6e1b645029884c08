package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrUnknownEntity is returned when an operation needs a profile that was
	// never given a trip.
	ErrUnknownEntity = errors.New("unknown entity")

	// Calibration preconditions.
	ErrDegenerateLabelSet = errors.New("degenerate label set: both classes required")
	ErrInvalidScore       = errors.New("invalid score: NaN or infinite")
)
