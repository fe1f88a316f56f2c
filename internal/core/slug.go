package core

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a human-readable name into a predictable id.
// Example: "Restaurants & Cafes 🍴" -> "restaurants_cafes".
func Slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}
