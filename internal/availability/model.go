package availability

import (
	"net/http"
	"sort"

	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/schedule"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

var (
	ErrPastDate      = apperror.New(http.StatusBadRequest, "Date is in the past.")
	ErrBeyondHorizon = apperror.New(http.StatusBadRequest, "Date is beyond the booking window.")
	ErrLoadFailed    = apperror.New(http.StatusBadGateway, "Unable to load availability.")
)

// DefaultIntervalMinutes is assumed when a day has too few slots to derive
// the spacing from.
const DefaultIntervalMinutes = 30

// Slot is a discrete bookable time point within a day. Boundary marks the
// synthetic end-of-day marker; it is always free regardless of backend data.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Booked    bool   `json:"booked"`
	Boundary  bool   `json:"boundary,omitempty"`
}

// Index maps slot times to slots for O(1) lookup during range validation.
type Index map[string]Slot

// Day is the normalized availability of a single date.
type Day struct {
	ResourceName    string
	Slots           []Slot
	Index           Index
	IntervalMinutes int
	Window          schedule.Window
	Synthetic       bool
}

// IsBooked reports whether the slot shows as busy. The boundary slot never
// does.
func IsBooked(s Slot) bool {
	return s.Booked && !s.Boundary
}

// IsBlocked reports whether the slot cannot start or cover a booking.
func IsBlocked(s Slot) bool {
	return IsBooked(s) || !s.Available
}

// BuildIndex derives the time-to-slot lookup from an ordered sequence.
// Duplicate times collapse to the last occurrence.
func BuildIndex(slots []Slot) Index {
	index := make(Index, len(slots))
	for _, s := range slots {
		index[s.Time] = s
	}
	return index
}

// Normalize filters raw slots to the working-hours window and guarantees
// exactly one boundary slot at the window end. An empty filtered set stays
// empty. The result is sorted ascending by time; zero-padded HH:MM makes the
// lexicographic order the chronological one. Normalize is idempotent.
func Normalize(raw []Slot, w schedule.Window) []Slot {
	if w.IsClosed() {
		return nil
	}

	var filtered []Slot
	for _, s := range raw {
		minutes, err := timeutil.TimeToMinutes(s.Time)
		if err != nil {
			continue
		}
		if minutes >= w.StartMinutes && minutes < w.EndMinutes {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	boundaryTime := timeutil.MinutesToTime(w.EndMinutes)
	hasBoundary := false
	for i, s := range filtered {
		if s.Time == boundaryTime {
			hasBoundary = true
			filtered[i] = Slot{Time: boundaryTime, Available: true, Boundary: true}
		}
	}
	if !hasBoundary {
		filtered = append(filtered, Slot{Time: boundaryTime, Available: true, Boundary: true})
	}

	sortSlots(filtered)
	return filtered
}

// ResolveInterval derives the slot spacing from the gap between the first two
// non-boundary slots, defaulting to DefaultIntervalMinutes when the day has
// fewer than two or the gap is not positive.
func ResolveInterval(slots []Slot) int {
	var first, second string
	for _, s := range slots {
		if s.Boundary {
			continue
		}
		if first == "" {
			first = s.Time
			continue
		}
		second = s.Time
		break
	}
	if second == "" {
		return DefaultIntervalMinutes
	}
	a, errA := timeutil.TimeToMinutes(first)
	b, errB := timeutil.TimeToMinutes(second)
	if errA != nil || errB != nil || b-a <= 0 {
		return DefaultIntervalMinutes
	}
	return b - a
}

// DefaultSlots builds a uniform free ladder across the window at the given
// spacing, used for auto-mode dates the backend has no data for yet.
func DefaultSlots(w schedule.Window, stepMinutes int) []Slot {
	if w.IsClosed() || stepMinutes <= 0 {
		return nil
	}
	var slots []Slot
	for m := w.StartMinutes; m < w.EndMinutes; m += stepMinutes {
		slots = append(slots, Slot{Time: timeutil.MinutesToTime(m), Available: true})
	}
	return slots
}

func sortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
}
