package notification

import (
	"errors"
	"fmt"
)

// Notification domain errors
var (
	ErrNoRecipients  = errors.New("no email recipients configured")
	ErrMissingHandle = errors.New("technician has no contact handle")
	ErrSendFailed    = errors.New("failed to send notification")
)

// AlertError records one failed threshold alert.
type AlertError struct {
	Technician string
	Handle     string
	Err        error
}

func (e *AlertError) Error() string {
	return fmt.Sprintf("alert to %s: %v", e.Technician, e.Err)
}

func (e *AlertError) Unwrap() error {
	return e.Err
}
