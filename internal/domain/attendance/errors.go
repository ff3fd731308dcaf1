package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Payload errors, fatal for the run
	ErrEmptyPayload   = errors.New("source returned no attendance rows")
	ErrMissingColumns = errors.New("source payload is missing required columns")

	// Partial payload: rows were read before the transport failed
	ErrPartialPayload = errors.New("source payload was truncated")

	// Row errors, the record is skipped
	ErrMissingTechnician = errors.New("technician is missing")
	ErrInvalidDuration   = errors.New("duration is not a valid HH:MM value")
	ErrInvalidTimestamp  = errors.New("clock-in/clock-out timestamp is invalid")
	ErrNegativeDuration  = errors.New("duration is negative")
)

// RecordError describes why one source row was rejected.
type RecordError struct {
	Row        int
	Technician string
	Reason     string
	Err        error
}

func (e *RecordError) Error() string {
	if e.Technician != "" {
		return fmt.Sprintf("row %d (%s): %s", e.Row, e.Technician, e.Reason)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
