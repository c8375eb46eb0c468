// Package schedule models the weekly working-hours windows that bound all
// booking times.
package schedule

import (
	"fmt"
	"time"

	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

// Window is a single day's working-hours window. Start is inclusive, End
// exclusive, both as minute-of-day offsets.
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// NewWindow builds a window from "HH:MM" bounds.
func NewWindow(start, end string) (Window, error) {
	startMinutes, err := timeutil.TimeToMinutes(start)
	if err != nil {
		return Window{}, err
	}
	endMinutes, err := timeutil.TimeToMinutes(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{StartMinutes: startMinutes, EndMinutes: endMinutes}
	if !w.IsClosed() && startMinutes >= endMinutes {
		return Window{}, fmt.Errorf("working hours %s-%s: start must be before end", start, end)
	}
	return w, nil
}

// Closed is the window of a day with no bookable hours.
func Closed() Window {
	return Window{}
}

// IsClosed reports whether the window has no bookable time at all.
func (w Window) IsClosed() bool {
	return w.StartMinutes == 0 && w.EndMinutes == 0
}

// Contains reports whether the minute offset falls inside the window.
// The end minute itself is outside: it is only reachable as a range end.
func (w Window) Contains(minutes int) bool {
	return minutes >= w.StartMinutes && minutes < w.EndMinutes
}

// Label renders the window as "HH:MM-HH:MM" for user-facing messages.
func (w Window) Label() string {
	return timeutil.MinutesToTime(w.StartMinutes) + "-" + timeutil.MinutesToTime(w.EndMinutes)
}

// Week maps each weekday to its working-hours window. Weekdays share one
// window, Saturday and Sunday each have their own.
type Week struct {
	Weekday  Window
	Saturday Window
	Sunday   Window
}

// DefaultWeek returns the business-hours schedule: 08:00-16:00 on weekdays,
// 09:00-17:00 on Saturday, closed on Sunday.
func DefaultWeek() Week {
	return Week{
		Weekday:  Window{StartMinutes: 8 * 60, EndMinutes: 16 * 60},
		Saturday: Window{StartMinutes: 9 * 60, EndMinutes: 17 * 60},
		Sunday:   Closed(),
	}
}

// WindowFor returns the window for the given weekday.
func (s Week) WindowFor(day time.Weekday) Window {
	switch day {
	case time.Saturday:
		return s.Saturday
	case time.Sunday:
		return s.Sunday
	default:
		return s.Weekday
	}
}

// WindowForDate returns the window for the date's weekday.
func (s Week) WindowForDate(date time.Time) Window {
	return s.WindowFor(date.Weekday())
}
