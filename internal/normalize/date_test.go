package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestParseDate_Formats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"us datetime", "03/19/2025 10:00 AM", time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)},
		{"us date", "03/19/2025", time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC)},
		{"iso datetime", "2025-03-19 10:00:00", time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)},
		{"iso date", "2025-03-19", time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC)},
		{"long month", "March 19, 2025 10:00 AM", time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)},
		{"short month", "Mar 19, 2025", time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC)},
		{"trailing zone stripped", "03/19/2025 10:00 AM CST", time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)},
		{"rfc3339ish", "2025-03-19T10:00:00", time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input, testNow)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseDate_Relative(t *testing.T) {
	got, ok := ParseDate("2 days 3 hours", testNow)
	require.True(t, ok)
	assert.Equal(t, testNow.Add(51*time.Hour), got)

	got, ok = ParseDate("3 hours 25 mins", testNow)
	require.True(t, ok)
	assert.Equal(t, testNow.Add(3*time.Hour+25*time.Minute), got)
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, input := range []string{"", "   ", "soon", "TBD", "19/03/2025"} {
		_, ok := ParseDate(input, testNow)
		assert.False(t, ok, "input %q", input)
	}
}
