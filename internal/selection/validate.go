package selection

import (
	"fmt"

	"github.com/partolaaa/maker-space-tools/internal/availability"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

// Validate checks a complete normal-mode selection: both times set, start
// within working hours, end no later than close, positive duration within the
// maximum, duration aligned to the slot interval, and no busy slot anywhere
// inside the range.
func (e *Engine) Validate(s State) Result {
	if s.StartTime == "" || s.EndTime == "" {
		return Result{Message: "Select a start and end time."}
	}
	if s.Day == nil {
		return Result{Message: "Unable to load availability."}
	}
	window := s.Day.Window

	startMinutes, err := timeutil.TimeToMinutes(s.StartTime)
	if err != nil {
		return Result{Message: fmt.Sprintf("Invalid start time %q.", s.StartTime)}
	}
	endMinutes, err := timeutil.TimeToMinutes(s.EndTime)
	if err != nil {
		return Result{Message: fmt.Sprintf("Invalid end time %q.", s.EndTime)}
	}

	if !window.Contains(startMinutes) {
		return Result{Message: fmt.Sprintf("Start time must be between %s and %s.",
			timeutil.MinutesToTime(window.StartMinutes), timeutil.MinutesToTime(window.EndMinutes))}
	}
	if endMinutes > window.EndMinutes {
		return Result{Message: fmt.Sprintf("End time must be no later than %s.",
			timeutil.MinutesToTime(window.EndMinutes))}
	}

	duration := endMinutes - startMinutes
	if duration <= 0 {
		return Result{Message: "End time must be after start time."}
	}
	if duration > e.cfg.MaxBookingDurationMinutes {
		return Result{Message: fmt.Sprintf("Maximum booking duration is %d hours.",
			e.cfg.MaxBookingDurationMinutes/60)}
	}
	interval := s.Day.IntervalMinutes
	if interval <= 0 {
		interval = availability.DefaultIntervalMinutes
	}
	if duration%interval != 0 {
		return Result{Message: "Selection must align with slot intervals."}
	}
	if !rangeAvailable(s.Day, startMinutes, endMinutes, interval) {
		return Result{Message: "Selected range includes busy slots."}
	}
	return Result{Valid: true, DurationMinutes: duration}
}

// ValidateAuto checks an auto-mode selection. Busy state and the booking
// horizon are never consulted; the range only has to sit inside working hours
// and align to the auto slot size.
func (e *Engine) ValidateAuto(s State) Result {
	if !s.HasDate() || s.StartTime == "" || s.EndTime == "" {
		return Result{Message: "Select a date and time range first."}
	}
	if s.Day == nil {
		return Result{Message: "Unable to load availability."}
	}
	window := s.Day.Window

	startMinutes, err := timeutil.TimeToMinutes(s.StartTime)
	if err != nil {
		return Result{Message: fmt.Sprintf("Invalid start time %q.", s.StartTime)}
	}
	endMinutes, err := timeutil.TimeToMinutes(s.EndTime)
	if err != nil {
		return Result{Message: fmt.Sprintf("Invalid end time %q.", s.EndTime)}
	}

	if startMinutes >= endMinutes {
		return Result{Message: "End time must be after start time."}
	}
	if !window.Contains(startMinutes) || endMinutes > window.EndMinutes {
		return Result{Message: fmt.Sprintf("Times must be within %s and %s.",
			timeutil.MinutesToTime(window.StartMinutes), timeutil.MinutesToTime(window.EndMinutes))}
	}

	duration := endMinutes - startMinutes
	if duration > e.cfg.MaxBookingDurationMinutes {
		return Result{Message: fmt.Sprintf("Maximum booking duration is %d hours.",
			e.cfg.MaxBookingDurationMinutes/60)}
	}
	if e.cfg.AutoSlotMinutes > 0 && duration%e.cfg.AutoSlotMinutes != 0 {
		return Result{Message: "Times must align to slot intervals."}
	}
	return Result{Valid: true, DurationMinutes: duration}
}

// rangeAvailable walks the range in interval steps and requires every step to
// map to a known, unblocked slot.
func rangeAvailable(day *availability.Day, startMinutes, endMinutes, intervalMinutes int) bool {
	for m := startMinutes; m < endMinutes; m += intervalMinutes {
		slot, ok := day.Index[timeutil.MinutesToTime(m)]
		if !ok || availability.IsBlocked(slot) {
			return false
		}
	}
	return true
}
