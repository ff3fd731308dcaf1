package monthly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheet_DaysInMonth(t *testing.T) {
	assert.Equal(t, 31, NewSheet(2026, time.October).DaysInMonth())
	assert.Equal(t, 28, NewSheet(2026, time.February).DaysInMonth())
	assert.Equal(t, 29, NewSheet(2028, time.February).DaysInMonth())
	assert.Equal(t, 31, NewSheet(2026, time.December).DaysInMonth())
}

func TestSheet_SetOverwritesSameCell(t *testing.T) {
	s := NewSheet(2026, time.October)

	_, had, err := s.Set("Ana Souza", 13, 300)
	require.NoError(t, err)
	assert.False(t, had)

	prev, had, err := s.Set("  ana SOUZA", 13, 320)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, 300, prev)

	require.Len(t, s.Rows, 1)
	row, ok := s.Row("Ana Souza")
	require.True(t, ok)
	assert.Equal(t, "Ana Souza", row.Technician)
	assert.Equal(t, map[int]int{13: 320}, row.Days)
}

func TestSheet_SetRejectsDayOutsideMonth(t *testing.T) {
	s := NewSheet(2026, time.February)
	_, _, err := s.Set("Ana", 29, 10)
	assert.ErrorIs(t, err, ErrDayOutOfRange)
	_, _, err = s.Set("Ana", 0, 10)
	assert.ErrorIs(t, err, ErrDayOutOfRange)
	assert.Empty(t, s.Rows)
}

func TestSheet_Recompute(t *testing.T) {
	s := NewSheet(2026, time.October)
	_, _, _ = s.Set("Ana", 1, 480)
	_, _, _ = s.Set("Ana", 2, 200)
	_, _, _ = s.Set("Ana", 5, 0)
	_, _, _ = s.Set("Bruno", 1, 100)

	minimums := map[string]int{"bruno": 60}
	s.Recompute(func(key string) int {
		if m, ok := minimums[key]; ok {
			return m
		}
		return 240
	})

	ana, _ := s.Row("Ana")
	assert.Equal(t, 680, ana.TotalMinutes)
	assert.Equal(t, 2, ana.BelowMinimumDays)

	bruno, _ := s.Row("Bruno")
	assert.Equal(t, 100, bruno.TotalMinutes)
	assert.Equal(t, 0, bruno.BelowMinimumDays)
}

func TestSheet_OrderedIsAlphabeticalByKey(t *testing.T) {
	s := NewSheet(2026, time.October)
	for _, n := range []string{"Carla", "ana", "Bruno", "Álvaro"} {
		s.Locate(n)
	}
	var got []string
	for _, r := range s.Ordered() {
		got = append(got, r.Technician)
	}
	assert.Equal(t, []string{"Álvaro", "ana", "Bruno", "Carla"}, got)
}

func TestFolder(t *testing.T) {
	assert.Equal(t, "2024/03-Março", Folder(2024, time.March))
	assert.Equal(t, "2023/12-Dezembro", Folder(2023, time.December))
	assert.Equal(t, "Julho", MonthName(time.July))
	assert.Equal(t, "Agosto", MonthName(time.August))
}
