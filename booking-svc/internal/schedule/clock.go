// Package schedule holds the pure time arithmetic behind table availability:
// wall-clock parsing, opening-hours checks and occupancy windows.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"tablebook/booking-svc/internal/domain"
)

const (
	MinutesPerDay = 24 * 60
	DateLayout    = "2006-01-02"
)

var weekdays = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Weekdays lists the OpeningHours keys in calendar order starting on Sunday.
func Weekdays() []string {
	out := make([]string, len(weekdays))
	copy(out, weekdays[:])
	return out
}

// TimeToMinutes converts "HH:MM" (or "HH:MM:SS", seconds ignored) into
// minutes since midnight.
func TimeToMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: time %q, want HH:MM", domain.ErrInvalidFormat, s)
	}
	fields := make([]int, len(parts))
	for i, p := range parts {
		n, ok := twoDigits(p)
		if !ok {
			return 0, fmt.Errorf("%w: time %q, want HH:MM", domain.ErrInvalidFormat, s)
		}
		fields[i] = n
	}
	h, m := fields[0], fields[1]
	if h > 23 || m > 59 || (len(fields) == 3 && fields[2] > 59) {
		return 0, fmt.Errorf("%w: time %q out of range", domain.ErrInvalidFormat, s)
	}
	return h*60 + m, nil
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// MinutesToTime formats minutes since midnight as zero-padded "HH:MM".
// Callers must keep minutes within [0, MinutesPerDay); no wrapping is done.
func MinutesToTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeTime parses and re-formats a time so "9:05"-style inputs are
// rejected and "19:00:00" becomes "19:00".
func NormalizeTime(s string) (string, error) {
	m, err := TimeToMinutes(s)
	if err != nil {
		return "", err
	}
	return MinutesToTime(m), nil
}

// ParseDate parses an ISO "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q, want YYYY-MM-DD", domain.ErrInvalidFormat, s)
	}
	return d, nil
}

// WeekdayName returns the lowercase weekday used as an OpeningHours key.
func WeekdayName(date time.Time) string {
	return weekdays[date.Weekday()]
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}
