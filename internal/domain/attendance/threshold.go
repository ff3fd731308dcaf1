package attendance

import "github.com/cmlabs-hris/hours-report/internal/pkg/names"

// Threshold resolves the expected daily minutes for a technician. A day is
// below minimum when the total is strictly less than the threshold.
type Threshold struct {
	Default   int
	overrides names.Lookup[int]
}

func NewThreshold(defaultMinutes int, overrides map[string]int) Threshold {
	return Threshold{
		Default:   defaultMinutes,
		overrides: names.NewLookup(overrides),
	}
}

// For accepts a display name or a canonical key.
func (t Threshold) For(name string) int {
	if m, ok := t.overrides.Get(name); ok {
		return m
	}
	return t.Default
}

func (t Threshold) Below(name string, minutes int) bool {
	return minutes < t.For(name)
}
