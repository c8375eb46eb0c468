package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/partolaaa/maker-space-tools/internal/makerspace"
	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/schedule"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

type upstream interface {
	ResourceAvailability(ctx context.Context, days int, guid, startTime string, intervalMinutes int) (*makerspace.AvailabilityResponse, error)
}

type Service interface {
	// DayFor loads and normalizes the availability of a date. Past dates are
	// rejected. Beyond the booking horizon a normal-mode request is rejected
	// while an auto-mode request gets a synthetic free ladder without an
	// upstream call.
	DayFor(ctx context.Context, date time.Time, auto bool) (*Day, error)
}

type service struct {
	client          upstream
	machineGUID     string
	machineName     string
	week            schedule.Week
	maxBookingHours int
	autoSlotMinutes int
	now             func() time.Time
}

func NewService(client upstream, machineGUID, machineName string, week schedule.Week, maxBookingHours, autoSlotMinutes int) Service {
	return &service{
		client:          client,
		machineGUID:     machineGUID,
		machineName:     machineName,
		week:            week,
		maxBookingHours: maxBookingHours,
		autoSlotMinutes: autoSlotMinutes,
		now:             time.Now,
	}
}

func (s *service) DayFor(ctx context.Context, date time.Time, auto bool) (*Day, error) {
	now := s.now()
	day := timeutil.StartOfDay(date)
	if day.Before(timeutil.StartOfDay(now)) {
		return nil, ErrPastDate
	}

	window := s.week.WindowForDate(day)
	if window.IsClosed() {
		return &Day{
			ResourceName:    s.machineName,
			IntervalMinutes: DefaultIntervalMinutes,
			Window:          window,
		}, nil
	}

	horizon := timeutil.StartOfDay(timeutil.AddHours(now, s.maxBookingHours))
	if day.After(horizon) {
		if !auto {
			return nil, ErrBeyondHorizon
		}
		slots := Normalize(DefaultSlots(window, s.autoSlotMinutes), window)
		return &Day{
			ResourceName:    s.machineName,
			Slots:           slots,
			Index:           BuildIndex(slots),
			IntervalMinutes: s.autoSlotMinutes,
			Window:          window,
			Synthetic:       true,
		}, nil
	}

	raw, name, err := s.fetch(ctx, day)
	if err != nil {
		if apperror.IsUnauthorized(err) {
			return nil, err
		}
		return nil, apperror.Wrap(err, ErrLoadFailed.Code, ErrLoadFailed.Message)
	}

	slots := Normalize(raw, window)
	return &Day{
		ResourceName:    name,
		Slots:           slots,
		Index:           BuildIndex(slots),
		IntervalMinutes: ResolveInterval(slots),
		Window:          window,
	}, nil
}

// fetch queries the provider for one day starting at the date's midnight and
// keeps only the entries that fall on that date.
func (s *service) fetch(ctx context.Context, day time.Time) ([]Slot, string, error) {
	start := day.Format(makerspace.LocalDateTimeLayout)
	resp, err := s.client.ResourceAvailability(ctx, 1, s.machineGUID, start, DefaultIntervalMinutes)
	if err != nil {
		return nil, "", err
	}

	name := s.machineName
	if resp.Resource != nil && resp.Resource.Name != "" {
		name = resp.Resource.Name
	}

	var slots []Slot
	for _, entry := range resp.AvailableSlots {
		at, err := time.ParseInLocation(makerspace.LocalDateTimeLayout, entry.DateTime, day.Location())
		if err != nil {
			return nil, "", fmt.Errorf("parse slot time %q: %w", entry.DateTime, err)
		}
		if !timeutil.SameDay(at, day) {
			continue
		}
		slots = append(slots, Slot{
			Time:      at.Format("15:04"),
			Available: entry.Available,
			Booked:    entry.Booked,
		})
	}
	return slots, name, nil
}
