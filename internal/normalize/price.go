package normalize

import (
	"strconv"
	"strings"
)

// ParsePrice cleans a currency string ("$1,234.56") to a float. Empty or
// non-numeric input returns ok=false; price parse failures never abort a
// record.
func ParsePrice(s string) (float64, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, false
	}
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
