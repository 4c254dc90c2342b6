package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateFormats is tried in priority order; the first format that parses wins.
var dateFormats = []string{
	"01/02/2006 3:04 PM",  // 03/19/2025 10:00 AM
	"01/02/2006",          // 03/19/2025
	"2006-01-02 15:04:05", // 2025-03-19 10:00:00
	"2006-01-02",          // 2025-03-19
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
}

// flexFormats is the last-resort sweep for ISO-ish strings the fixed list
// misses (scrapers occasionally emit RFC3339 with or without zone).
var flexFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
}

var (
	relDaysHours = regexp.MustCompile(`(\d+)\s+day(?:s)?\s+(\d+)\s+hour(?:s)?`)
	relHoursMins = regexp.MustCompile(`(\d+)\s+hour(?:s)?\s+(\d+)\s+min(?:s)?`)
	trailingZone = regexp.MustCompile(`\s+[A-Z]{3,4}$`)
)

// ParseDate converts a scraped date string to a time. Relative phrasings
// ("2 days 3 hours", "3 hours 25 mins") are resolved against now; literal
// dates are tried against the fixed format list, then the flexible sweep.
// Returns ok=false when nothing matches.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := relDaysHours.FindStringSubmatch(s); m != nil {
		days, _ := strconv.Atoi(m[1])
		hours, _ := strconv.Atoi(m[2])
		return now.Truncate(time.Second).Add(time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour), true
	}
	if m := relHoursMins.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return now.Truncate(time.Second).Add(time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute), true
	}

	// Sources append zone abbreviations ("CST", "CDT") Go can't resolve
	// portably; times are treated as local wall-clock.
	stripped := trailingZone.ReplaceAllString(s, "")

	for _, fmt := range dateFormats {
		if t, err := time.Parse(fmt, stripped); err == nil {
			return t, true
		}
	}
	for _, fmt := range flexFormats {
		if t, err := time.Parse(fmt, stripped); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
