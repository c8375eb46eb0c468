package selection

import (
	"fmt"
	"time"

	"github.com/partolaaa/maker-space-tools/internal/availability"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

// Config carries the process-wide booking limits. Now is injectable for
// deterministic horizon tests and defaults to time.Now.
type Config struct {
	MaxBookingHours           int
	MaxBookingDurationMinutes int
	AutoSlotMinutes           int
	Now                       func() time.Time
}

// Engine evaluates selection transitions under a fixed Config.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{cfg: cfg}
}

// Reduce applies one event and returns the next state plus the side effects
// the caller should run.
func (e *Engine) Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case DateSelected:
		s.Date = timeutil.StartOfDay(ev.Date)
		s = resetPick(s)
		s.Day = nil
		s.Failed = false
		s.Loading = true
		s.Gen++
		return s, []Effect{
			StatusChanged{Message: "Loading availability...", Success: true},
			SelectionChanged{Selection: e.snapshot(s)},
			FetchAvailability{Date: s.Date, Gen: s.Gen},
		}

	case ModeToggled:
		mode := ModeNormal
		if ev.Auto {
			mode = ModeAuto
		}
		if mode == s.Mode {
			return s, nil
		}
		s.Mode = mode
		s = resetPick(s)
		if !s.HasDate() {
			return s, []Effect{SelectionChanged{Selection: e.snapshot(s)}}
		}
		s.Day = nil
		s.Failed = false
		s.Loading = true
		s.Gen++
		return s, []Effect{
			StatusChanged{Message: "Loading availability...", Success: true},
			SelectionChanged{Selection: e.snapshot(s)},
			FetchAvailability{Date: s.Date, Gen: s.Gen},
		}

	case SlotsLoaded:
		if ev.Gen != s.Gen {
			return s, nil
		}
		s.Loading = false
		s.Failed = false
		s.Day = ev.Day
		return s, []Effect{StatusChanged{Message: e.loadedStatus(s), Success: true}}

	case LoadFailed:
		if ev.Gen != s.Gen {
			return s, nil
		}
		s.Loading = false
		s.Failed = true
		s.Day = nil
		return s, []Effect{StatusChanged{Message: "Unable to load availability.", Success: false}}

	case TimeClicked:
		return e.selectTime(s, ev.Time)
	}
	return s, nil
}

// selectTime implements the click protocol. The first click picks a start,
// the second an end. A click at or before the current start re-picks the
// start, and a rejected end that would itself be a legal start restarts the
// pick there.
func (e *Engine) selectTime(s State, t string) (State, []Effect) {
	if s.Day == nil || s.Loading {
		return s, nil
	}

	if s.StartTime == "" || s.EndTime != "" {
		return e.pickStart(s, t)
	}

	endMinutes, err := timeutil.TimeToMinutes(t)
	if err != nil {
		return s, []Effect{StatusChanged{Message: e.startRejectedMessage(s), Success: false}}
	}
	startMinutes, err := timeutil.TimeToMinutes(s.StartTime)
	if err != nil {
		return e.pickStart(s, t)
	}
	if endMinutes <= startMinutes {
		return e.pickStart(s, t)
	}

	if !e.isEndTimeAllowed(s, endMinutes, startMinutes) {
		if ok, _ := e.isStartTimeAllowed(s, t); ok {
			return e.pickStart(s, t)
		}
		return s, []Effect{StatusChanged{Message: e.endPromptMessage(s), Success: false}}
	}

	s.EndTime = t
	effects := []Effect{SelectionChanged{Selection: e.snapshot(s)}}
	result := e.validate(s)
	if !result.Valid {
		effects = append(effects, StatusChanged{Message: result.Message, Success: false})
		return s, effects
	}
	label := "Ready to book"
	if s.Mode == ModeAuto {
		label = "Ready to schedule"
	}
	effects = append(effects, StatusChanged{
		Message: fmt.Sprintf("%s %s.", label, timeutil.FormatDuration(result.DurationMinutes)),
		Success: true,
	})
	return s, effects
}

func (e *Engine) pickStart(s State, t string) (State, []Effect) {
	if ok, reason := e.isStartTimeAllowed(s, t); !ok {
		msg := reason
		if msg == "" {
			msg = e.startRejectedMessage(s)
		}
		return s, []Effect{StatusChanged{Message: msg, Success: false}}
	}
	s.StartTime = t
	s.EndTime = ""
	return s, []Effect{
		SelectionChanged{Selection: e.snapshot(s)},
		StatusChanged{Message: e.endPromptMessage(s), Success: true},
	}
}

// isStartTimeAllowed reports whether t can begin a pick. The returned reason
// is non-empty only for the horizon rejection, which gets its own message.
func (e *Engine) isStartTimeAllowed(s State, t string) (bool, string) {
	if s.Day == nil {
		return false, ""
	}
	minutes, err := timeutil.TimeToMinutes(t)
	if err != nil {
		return false, ""
	}
	if !s.Day.Window.Contains(minutes) {
		return false, ""
	}
	slot, ok := s.Day.Index[t]
	if !ok {
		return false, ""
	}
	if s.Mode == ModeAuto {
		return true, ""
	}
	if availability.IsBlocked(slot) {
		return false, ""
	}
	if cutoff, onHorizonDay := e.horizonCutoff(s.Date, s.Day.IntervalMinutes); onHorizonDay && minutes > cutoff {
		return false, fmt.Sprintf("Start time is beyond the %dh booking limit.", e.cfg.MaxBookingHours)
	}
	return true, ""
}

// isEndTimeAllowed caps the end at the lesser of start+maxDuration and the
// working-hours end.
func (e *Engine) isEndTimeAllowed(s State, endMinutes, startMinutes int) bool {
	if s.Day == nil {
		return false
	}
	ceiling := startMinutes + e.cfg.MaxBookingDurationMinutes
	if s.Day.Window.EndMinutes < ceiling {
		ceiling = s.Day.Window.EndMinutes
	}
	return startMinutes < endMinutes && endMinutes <= ceiling
}

// horizonCutoff returns the last start minute inside the booking horizon and
// whether the date is the day the horizon instant falls on. The cutoff is the
// horizon instant rounded down to the active interval.
func (e *Engine) horizonCutoff(date time.Time, intervalMinutes int) (int, bool) {
	if intervalMinutes <= 0 {
		intervalMinutes = availability.DefaultIntervalMinutes
	}
	horizon := timeutil.AddHours(e.cfg.Now(), e.cfg.MaxBookingHours)
	if !timeutil.SameDay(date, horizon) {
		return 0, false
	}
	minutes := horizon.Hour()*60 + horizon.Minute()
	return minutes - minutes%intervalMinutes, true
}

func (e *Engine) snapshot(s State) Selection {
	return Selection{
		Date:            s.Date,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: durationMinutes(s),
	}
}

func durationMinutes(s State) int {
	if s.StartTime == "" || s.EndTime == "" {
		return 0
	}
	start, errS := timeutil.TimeToMinutes(s.StartTime)
	end, errE := timeutil.TimeToMinutes(s.EndTime)
	if errS != nil || errE != nil || end <= start {
		return 0
	}
	return end - start
}

func resetPick(s State) State {
	s.StartTime = ""
	s.EndTime = ""
	return s
}

func (e *Engine) validate(s State) Result {
	if s.Mode == ModeAuto {
		return e.ValidateAuto(s)
	}
	return e.Validate(s)
}

// loadedStatus is the status line shown right after availability arrives.
func (e *Engine) loadedStatus(s State) string {
	if s.Day != nil && s.Day.Synthetic {
		return "Availability not available yet. Select any time range."
	}
	if s.Mode == ModeAuto {
		return "Auto mode: select a date and time range (busy allowed)."
	}
	window := s.Day.Window
	base := fmt.Sprintf("Select start and end time between %s and %s (max %dh).",
		timeutil.MinutesToTime(window.StartMinutes),
		timeutil.MinutesToTime(window.EndMinutes),
		e.cfg.MaxBookingDurationMinutes/60)
	if cutoff, onHorizonDay := e.horizonCutoff(s.Date, s.Day.IntervalMinutes); onHorizonDay {
		return fmt.Sprintf("%s Start times after %s fall outside the %dh booking limit.",
			base, timeutil.MinutesToTime(cutoff), e.cfg.MaxBookingHours)
	}
	return base
}

func (e *Engine) startRejectedMessage(s State) string {
	window := s.Day.Window
	bounds := fmt.Sprintf("between %s and %s",
		timeutil.MinutesToTime(window.StartMinutes),
		timeutil.MinutesToTime(window.EndMinutes))
	if s.Mode == ModeAuto {
		return fmt.Sprintf("Select a start time %s.", bounds)
	}
	return fmt.Sprintf("Select a free start time %s.", bounds)
}

func (e *Engine) endPromptMessage(s State) string {
	return fmt.Sprintf("Select an end time within %dh, up to %s.",
		e.cfg.MaxBookingDurationMinutes/60,
		timeutil.MinutesToTime(s.Day.Window.EndMinutes))
}
