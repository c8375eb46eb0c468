// Package timeutil provides pure conversions between clock times,
// minute-of-day offsets and calendar dates used by the booking logic.
package timeutil

import (
	"fmt"
	"time"
)

const (
	// MinutesPerDay is the number of minutes in a single day.
	MinutesPerDay = 24 * 60

	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
)

// TimeToMinutes converts a zero-padded "HH:MM" string to a minute-of-day offset.
func TimeToMinutes(value string) (int, error) {
	var hours, minutes int
	if _, err := fmt.Sscanf(value, "%2d:%2d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	if len(value) != 5 || value[2] != ':' || hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return hours*60 + minutes, nil
}

// MinutesToTime converts a minute-of-day offset to a zero-padded "HH:MM" string.
// Offsets wrap modulo 24 hours, so MinutesToTime(1440) == "00:00".
func MinutesToTime(totalMinutes int) string {
	hours := (totalMinutes / 60) % 24
	minutes := totalMinutes % 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// FormatDuration renders a minute count as "Xh Ym", dropping the hour part
// when zero and the minute part when it is zero and hours are present.
func FormatDuration(durationMinutes int) string {
	hours := durationMinutes / 60
	minutes := durationMinutes % 60
	if hours <= 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatDate renders a date as "YYYY-MM-DD".
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}

// ParseDate parses a "YYYY-MM-DD" string in the given location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return date, nil
}

// StartOfDay truncates a time to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfMonth truncates a time to the first day of its month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths returns the first day of the month the given number of months away.
func AddMonths(t time.Time, months int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
}

// AddHours shifts a time by the given number of hours.
func AddHours(t time.Time, hours int) time.Time {
	return t.Add(time.Duration(hours) * time.Hour)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(first, second time.Time) bool {
	return first.Year() == second.Year() &&
		first.Month() == second.Month() &&
		first.Day() == second.Day()
}

// IsBeforeMonth reports whether monthDate falls in a month earlier than the
// month containing boundaryDate. Used to clamp calendar navigation.
func IsBeforeMonth(monthDate, boundaryDate time.Time) bool {
	return monthDate.Before(StartOfMonth(boundaryDate))
}

// IsAfterMonth reports whether monthDate falls in a month later than the
// month containing boundaryDate.
func IsAfterMonth(monthDate, boundaryDate time.Time) bool {
	return monthDate.After(StartOfMonth(boundaryDate))
}
