package monthly

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/pkg/names"
)

// Sheet is the structured form of one month's workbook: technician -> day -> minutes.
// All merging happens here; the workbook store only translates cells.
type Sheet struct {
	Year  int
	Month time.Month
	Rows  map[string]*Row
}

// Row holds one technician's days. Days only contains days that were recorded;
// a missing day is "no data", not zero.
type Row struct {
	Technician       string
	Key              string
	Days             map[int]int
	TotalMinutes     int
	BelowMinimumDays int
}

func NewSheet(year int, month time.Month) *Sheet {
	return &Sheet{
		Year:  year,
		Month: month,
		Rows:  make(map[string]*Row),
	}
}

// DaysInMonth returns the number of day columns the sheet carries.
func (s *Sheet) DaysInMonth() int {
	return time.Date(s.Year, s.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Row finds a technician by any spelling of the name.
func (s *Sheet) Row(name string) (*Row, bool) {
	r, ok := s.Rows[names.Key(name)]
	return r, ok
}

// Locate returns the technician's row, creating it when absent. The display name
// of an existing row is kept.
func (s *Sheet) Locate(name string) (row *Row, created bool) {
	key := names.Key(name)
	if r, ok := s.Rows[key]; ok {
		return r, false
	}
	r := &Row{
		Technician: names.Clean(name),
		Key:        key,
		Days:       make(map[int]int),
	}
	s.Rows[key] = r
	return r, true
}

// Set writes minutes into (technician, day), overwriting any previous value.
// It reports the previous value when there was one.
func (s *Sheet) Set(name string, day, minutes int) (previous int, had bool, err error) {
	if day < 1 || day > s.DaysInMonth() {
		return 0, false, ErrDayOutOfRange
	}
	row, _ := s.Locate(name)
	previous, had = row.Days[day]
	row.Days[day] = minutes
	return previous, had, nil
}

// Recompute refreshes the derived columns. minimumFor returns the expected
// minutes for a technician key.
func (s *Sheet) Recompute(minimumFor func(key string) int) {
	for _, row := range s.Rows {
		row.TotalMinutes = 0
		row.BelowMinimumDays = 0
		minimum := minimumFor(row.Key)
		for _, minutes := range row.Days {
			row.TotalMinutes += minutes
			if minutes < minimum {
				row.BelowMinimumDays++
			}
		}
	}
}

// Ordered returns the rows sorted by canonical key so that inserting a
// technician never reorders the others.
func (s *Sheet) Ordered() []*Row {
	rows := make([]*Row, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Key == rows[j].Key {
			return rows[i].Technician < rows[j].Technician
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// Values returns a copy of technician -> day -> minutes keyed by display name.
func (s *Sheet) Values() map[string]map[int]int {
	out := make(map[string]map[int]int, len(s.Rows))
	for _, r := range s.Rows {
		days := make(map[int]int, len(r.Days))
		for d, m := range r.Days {
			days[d] = m
		}
		out[r.Technician] = days
	}
	return out
}

// Result summarizes one reconciliation.
type Result struct {
	Path        string
	Day         int
	Created     bool
	Inserted    []string
	Updated     []string
	Overwritten []string
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese month name used in folder names.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return monthNames[m-1]
}

// Folder returns "<YYYY>/<MM>-<MonthName>", the per-month directory shared by the
// workbook and the archived daily reports.
func Folder(year int, month time.Month) string {
	return fmt.Sprintf("%04d/%02d-%s", year, int(month), MonthName(month))
}
