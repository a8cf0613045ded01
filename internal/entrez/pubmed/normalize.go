package pubmed

import (
	"regexp"
	"strconv"
	"time"
)

var markupPattern = regexp.MustCompile(`<.*?>`)

// StripMarkup removes every angle-bracket tag from free text. Empty input
// yields an empty string.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	return markupPattern.ReplaceAllString(s, "")
}

// ResolvePartialDate resolves a partial date fragment to a calendar date.
// Year is mandatory, numeric, and within 1..9999. A missing or non-numeric
// month or day defaults to 1; a numeric month or day outside calendar range
// makes the whole fragment unusable. Returns nil rather than failing.
func ResolvePartialDate(year, month, day string) *time.Time {
	y, ok := parseDigits(year)
	if !ok || y < 1 || y > 9999 {
		return nil
	}

	m := 1
	if v, ok := parseDigits(month); ok {
		m = v
	}
	d := 1
	if v, ok := parseDigits(day); ok {
		d = v
	}

	if m < 1 || m > 12 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 2);
	// a shifted result means the fragment was not a real calendar date.
	if d < 1 || t.Month() != time.Month(m) || t.Day() != d {
		return nil
	}
	return &t
}

// parseDigits parses a string consisting solely of decimal digits. Signs,
// spaces, and month names all fail, matching the upstream convention where
// "Jan" is not a numeric month.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
