package player

import "strings"

var nameSuffixes = map[string]struct{}{
	"jr":  {},
	"jr.": {},
	"sr":  {},
	"sr.": {},
	"ii":  {},
	"iii": {},
	"iv":  {},
	"v":   {},
}

// FormatName shortens a full name to the "F. Last" form used to match
// salary-sheet and lineup-feed rows against player records. Generational
// suffixes stay attached to the surname.
func FormatName(full string) string {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}

	last := parts[len(parts)-1]
	if _, ok := nameSuffixes[strings.ToLower(last)]; ok && len(parts) > 2 {
		last = parts[len(parts)-2] + " " + last
	}

	return string([]rune(parts[0])[0]) + ". " + last
}
