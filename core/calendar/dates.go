package calendar

import (
	"time"

	"github.com/pkg/errors"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	// InvalidDate is displayed in place of dates that cannot be parsed.
	InvalidDate = "Invalid date"

	displayLayout = "Monday, January 2, 2006"
)

// ISODate formats t as YYYY-MM-DD in t's location.
func ISODate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing date %q", s)
	}
	return t, nil
}

// At combines a YYYY-MM-DD date and a HH:MM clock into an instant in loc.
func At(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	c, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing time %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, day.Location()), nil
}

// FormatDate renders a YYYY-MM-DD (or RFC 3339) date for display, eg. "Monday, June 2, 2025".
// It returns InvalidDate if s cannot be parsed.
func FormatDate(s string) string {
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(displayLayout)
		}
	}
	return InvalidDate
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
