package hhmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"00:00", 0},
		{"0:05", 5},
		{"04:00", 240},
		{" 08:30 ", 510},
		{"37:15", 2235},
		{"01:02:59", 62},
	}
	for _, c := range cases {
		got, err := Parse(c.input)
		require.NoError(t, err, c.input)
		assert.Equal(t, c.want, got, c.input)
	}
}

func TestParse_Invalid(t *testing.T) {
	invalid := []string{"", "abc", "10", "1:5", "01:60", "-01:00", ":30", "01:00:99", "1:02:03:04"}
	for _, s := range invalid {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalid, s)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", Format(0))
	assert.Equal(t, "04:00", Format(240))
	assert.Equal(t, "37:15", Format(2235))
	assert.Equal(t, "-00:30", Format(-30))
}
