package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/pkg/names"
)

// RawRecord is one row of the vendor export, fields as text.
type RawRecord struct {
	Row        int
	Technician string
	Duration   string
	ClockIn    string
	ClockOut   string
	Ticket     string
	Client     string
}

// Record is a validated RawRecord.
type Record struct {
	Row        int
	Technician string
	Key        string
	Minutes    int
	Ticket     string
}

// DailyTotal is one technician's worked time for the business day.
type DailyTotal struct {
	Technician     string
	Key            string
	Minutes        int
	MinimumMinutes int
	BelowMinimum   bool
	Records        int
}

// DailyAggregate holds one entry per technician present in the day's records,
// keyed by canonical name. Technicians without records are absent.
type DailyAggregate struct {
	Day    time.Time
	Totals map[string]DailyTotal
}

func NewDailyAggregate(day time.Time) *DailyAggregate {
	return &DailyAggregate{
		Day:    day,
		Totals: make(map[string]DailyTotal),
	}
}

// Get looks a technician up by any spelling of the name.
func (a *DailyAggregate) Get(name string) (DailyTotal, bool) {
	t, ok := a.Totals[names.Key(name)]
	return t, ok
}

func (a *DailyAggregate) Len() int {
	return len(a.Totals)
}

// Sorted returns the totals ordered by canonical key.
func (a *DailyAggregate) Sorted() []DailyTotal {
	totals := make([]DailyTotal, 0, len(a.Totals))
	for _, t := range a.Totals {
		totals = append(totals, t)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Key < totals[j].Key
	})
	return totals
}

// BelowMinimum returns the flagged totals ordered by canonical key.
func (a *DailyAggregate) BelowMinimum() []DailyTotal {
	var flagged []DailyTotal
	for _, t := range a.Sorted() {
		if t.BelowMinimum {
			flagged = append(flagged, t)
		}
	}
	return flagged
}

// PreviousBusinessDay returns the working day before now, skipping weekends.
// The result is midnight in now's location.
func PreviousBusinessDay(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
