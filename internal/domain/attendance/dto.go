package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/pkg/hhmm"
	"github.com/cmlabs-hris/hours-report/internal/pkg/names"
)

// Timestamp layouts seen in vendor exports.
var timestampLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// Validate turns the raw row into a Record or returns a *RecordError.
// A blank duration falls back to the clock-in/clock-out pair.
func (r RawRecord) Validate() (Record, error) {
	technician := names.Clean(r.Technician)
	if technician == "" {
		return Record{}, r.reject("", "technician is missing", ErrMissingTechnician)
	}

	var minutes int
	switch {
	case strings.TrimSpace(r.Duration) != "":
		if strings.HasPrefix(strings.TrimSpace(r.Duration), "-") {
			return Record{}, r.reject(technician, fmt.Sprintf("negative duration %q", r.Duration), ErrNegativeDuration)
		}
		m, err := hhmm.Parse(r.Duration)
		if err != nil {
			return Record{}, r.reject(technician, fmt.Sprintf("unparseable duration %q", r.Duration), ErrInvalidDuration)
		}
		minutes = m
	case strings.TrimSpace(r.ClockIn) != "" && strings.TrimSpace(r.ClockOut) != "":
		in, err := parseTimestamp(r.ClockIn)
		if err != nil {
			return Record{}, r.reject(technician, fmt.Sprintf("unparseable clock-in %q", r.ClockIn), ErrInvalidTimestamp)
		}
		out, err := parseTimestamp(r.ClockOut)
		if err != nil {
			return Record{}, r.reject(technician, fmt.Sprintf("unparseable clock-out %q", r.ClockOut), ErrInvalidTimestamp)
		}
		if out.Before(in) {
			return Record{}, r.reject(technician, "clock-out is before clock-in", ErrNegativeDuration)
		}
		minutes = int(out.Sub(in).Minutes())
	default:
		return Record{}, r.reject(technician, "no duration and no clock-in/clock-out pair", ErrInvalidDuration)
	}

	return Record{
		Row:        r.Row,
		Technician: technician,
		Key:        names.Key(technician),
		Minutes:    minutes,
		Ticket:     strings.TrimSpace(r.Ticket),
	}, nil
}

func (r RawRecord) reject(technician, reason string, err error) *RecordError {
	return &RecordError{Row: r.Row, Technician: technician, Reason: reason, Err: err}
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
