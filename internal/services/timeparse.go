package services

import (
	"fmt"
	"regexp"
	"time"
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISODate reports whether s is a bare YYYY-MM-DD date string
func IsISODate(s string) bool {
	return isoDateRe.MatchString(s)
}

// ParseDateTime parses the date/time formats accepted from the agent layer:
// "DD.MM.YYYY HH:mm", "DD.MM.YYYY", "YYYY-MM-DD" and RFC 3339. Formats
// without an offset are interpreted in loc (the tenant's timezone), never in
// server-local time.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	layouts := []string{
		"02.01.2006 15:04",
		"02.01.2006",
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
