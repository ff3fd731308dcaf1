// Package hhmm converts between "HH:MM" duration text and whole minutes.
// Hours are not capped at 23, so "37:15" is a valid monthly total.
package hhmm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalid = errors.New("invalid HH:MM duration")

// Parse converts "H:MM", "HH:MM" or "HH:MM:SS" into minutes. Seconds are truncated.
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || parts[0] == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	if len(parts) == 3 {
		seconds, err := strconv.Atoi(parts[2])
		if err != nil || len(parts[2]) != 2 || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
	}

	return hours*60 + minutes, nil
}

// Format renders minutes as zero-padded "HH:MM".
func Format(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}
