package formatting

import (
	"strings"
	"time"
)

// DateLayout is the dd/mm/yyyy layout printed on issued documents.
const DateLayout = "02/01/2006"

const sqlDateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// FormatDate renders ISO-8601 timestamps, YYYY-MM-DD and YYYYMMDD values as
// dd/mm/yyyy. Unrecognized input is returned trimmed and otherwise unchanged.
func FormatDate(s string) string {
	t, ok := parseDate(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return t.Format(DateLayout)
}

// SQLDate normalizes a date to YYYY-MM-DD. In addition to the inputs accepted by
// FormatDate it understands dd/mm/yyyy. Empty input yields an empty string and
// unrecognized input is returned trimmed.
func SQLDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, ok := parseDate(s); ok {
		return t.Format(sqlDateLayout)
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.Format(sqlDateLayout)
	}
	return s
}

// ValidityRange returns the first and last calendar day covered by a period of
// days starting on the day of start in loc. The last day is first + days - 1;
// periods shorter than one day count as one.
func ValidityRange(start time.Time, days int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	days = max(days, 1)

	local := start.In(loc)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return first, first.AddDate(0, 0, days-1)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		if t, err := time.Parse(sqlDateLayout, s[:10]); err == nil {
			return t, true
		}
	}

	if len(s) == 8 && Digits(s) == s {
		if t, err := time.Parse("20060102", s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
