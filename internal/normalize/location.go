package normalize

import (
	"regexp"
	"strings"

	"github.com/txsurplus/auctiondb/internal/model"
)

// cityStateZip matches "City, ST 78701" with the ZIP optional.
var cityStateZip = regexp.MustCompile(`([^,]+),\s*([A-Z]{2})\s*(\d{5})?`)

// ParseLocation extracts city/state/zip from a free-text location string.
// When the pattern does not match, the whole string is treated as the city
// and the state falls back to defaultState.
func ParseLocation(s, defaultState string) model.RawLocation {
	loc := model.RawLocation{State: defaultState}
	s = strings.TrimSpace(s)
	if s == "" {
		return loc
	}

	if m := cityStateZip.FindStringSubmatch(s); m != nil {
		loc.City = strings.TrimSpace(m[1])
		loc.State = strings.TrimSpace(m[2])
		if m[3] != "" {
			loc.ZipCode = strings.TrimSpace(m[3])
		}
		return loc
	}

	loc.City = s
	return loc
}
