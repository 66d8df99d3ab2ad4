package core

import (
	"strings"
	"time"
	"unicode"
)

// DateLayout is the calendar date format used on the wire (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Initial returns the upper-cased first letter of s, or "" if s is blank.
func Initial(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return string(unicode.ToUpper(r))
	}
	return ""
}

// Today returns the calendar date of t in loc.
func Today(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// IsDate reports whether s is a calendar date formatted with DateLayout.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
