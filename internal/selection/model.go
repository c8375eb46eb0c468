// Package selection implements the slot-selection state machine: it tracks a
// date and an in-progress start/end pick, validates the pick against working
// hours, the booking horizon, slot granularity and busy state, and publishes
// derived status messages. All transitions are pure; side effects are
// returned as effect values for the caller to execute.
package selection

import (
	"time"

	"github.com/partolaaa/maker-space-tools/internal/availability"
)

// Mode selects which rule set applies to a pick.
type Mode int

const (
	// ModeNormal books immediately and respects busy state and the horizon.
	ModeNormal Mode = iota
	// ModeAuto composes a recurring booking; busy state and the horizon are
	// waived.
	ModeAuto
)

// State is the full selection state. It is a value: Reduce returns an updated
// copy and never mutates its input.
type State struct {
	Mode      Mode
	Date      time.Time
	StartTime string
	EndTime   string

	// Day is the loaded availability for Date, nil while loading or after a
	// failed load.
	Day *availability.Day

	// Gen identifies the newest availability fetch. Loads carrying an older
	// generation are dropped.
	Gen     int
	Loading bool
	Failed  bool
}

// HasDate reports whether a date has been chosen.
func (s State) HasDate() bool {
	return !s.Date.IsZero()
}

// Result is the uniform contract of every validation function.
type Result struct {
	Valid           bool
	Message         string
	DurationMinutes int
}

// Selection is the read-only snapshot published to consumers.
type Selection struct {
	Date            time.Time
	StartTime       string
	EndTime         string
	DurationMinutes int
}

// Event is a discrete input to the state machine.
type Event interface{ isEvent() }

// DateSelected picks a calendar date, resetting any in-progress selection.
type DateSelected struct {
	Date time.Time
}

// TimeClicked names a slot time the user clicked.
type TimeClicked struct {
	Time string
}

// ModeToggled switches between normal and auto mode.
type ModeToggled struct {
	Auto bool
}

// SlotsLoaded delivers a finished availability fetch.
type SlotsLoaded struct {
	Gen int
	Day *availability.Day
}

// LoadFailed reports a failed availability fetch.
type LoadFailed struct {
	Gen int
}

func (DateSelected) isEvent() {}
func (TimeClicked) isEvent()  {}
func (ModeToggled) isEvent()  {}
func (SlotsLoaded) isEvent()  {}
func (LoadFailed) isEvent()   {}

// Effect is a side-effect request emitted by Reduce.
type Effect interface{ isEffect() }

// FetchAvailability asks the caller to load availability for a date and feed
// the outcome back as SlotsLoaded or LoadFailed carrying the same generation.
type FetchAvailability struct {
	Date time.Time
	Gen  int
}

// StatusChanged publishes a user-facing status line. Success distinguishes
// informational statuses from rejections.
type StatusChanged struct {
	Message string
	Success bool
}

// SelectionChanged publishes the current selection snapshot.
type SelectionChanged struct {
	Selection Selection
}

func (FetchAvailability) isEffect() {}
func (StatusChanged) isEffect()     {}
func (SelectionChanged) isEffect()  {}
