package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		city  string
		state string
		zip   string
	}{
		{"full", "Austin, TX 78701", "Austin", "TX", "78701"},
		{"no zip", "San Antonio, TX", "San Antonio", "TX", ""},
		{"other state", "Oklahoma City, OK 73102", "Oklahoma City", "OK", "73102"},
		{"bare city falls back to default state", "Pflugerville", "Pflugerville", "TX", ""},
		{"empty", "", "", "TX", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := ParseLocation(tt.input, "TX")
			assert.Equal(t, tt.city, loc.City)
			assert.Equal(t, tt.state, loc.State)
			assert.Equal(t, tt.zip, loc.ZipCode)
		})
	}
}
