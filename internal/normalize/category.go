package normalize

import "strings"

// categoryKeywords pairs each category with its trigger keywords. Groups are
// tested in order and the first group with a hit wins, so "truck tractor"
// classifies as vehicles, not equipment.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"vehicles", []string{"car", "truck", "van", "suv", "ford", "chevy", "toyota", "honda", "vehicle", "auto"}},
	{"real_estate", []string{"real estate", "property", "land", "house", "home", "apartment", "condo"}},
	{"jewelry", []string{"jewelry", "watch", "rolex", "gold", "silver", "diamond"}},
	{"equipment", []string{"equipment", "machinery", "tools", "forklift", "tractor"}},
}

// InferCategory classifies an auction from its title and description.
// Returns "other" when no keyword group matches.
func InferCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				return group.name
			}
		}
	}
	return "other"
}
