package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/partolaaa/maker-space-tools/internal/availability"
	"github.com/partolaaa/maker-space-tools/internal/makerspace"
	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/schedule"
	"github.com/partolaaa/maker-space-tools/internal/selection"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

type upstream interface {
	PreviewInvoice(ctx context.Context, items []makerspace.PreviewItem) (*makerspace.PreviewResponse, error)
	BookBasket(ctx context.Context, basket makerspace.BasketRequest) error
	MyBookings(ctx context.Context, depth int) (*makerspace.MyBookingsResponse, error)
	CancelBooking(ctx context.Context, bookingID int64) error
	LoginWithStored(ctx context.Context) error
}

const myBookingsDepth = 3

type Service interface {
	// Submit validates and books the requested range. A refused booking is
	// returned as an unsuccessful Response; only unauthorized sessions and
	// malformed requests surface as errors.
	Submit(ctx context.Context, req Request) (*Response, error)
	// SubmitScheduled is Submit with one stored-credential re-login retry on
	// an expired session, for unattended callers.
	SubmitScheduled(ctx context.Context, req Request) (*Response, error)
	// Pending lists the user's active future bookings ordered by start time.
	Pending(ctx context.Context) ([]PendingBooking, error)
	// Cancel cancels an upstream booking by id.
	Cancel(ctx context.Context, id int64) error
}

type service struct {
	client       upstream
	availability availability.Service
	engine       *selection.Engine
	week         schedule.Week

	machineID  int64
	coworkerID int64

	maxBookingHours           int
	maxBookingDurationMinutes int

	now func() time.Time
}

func NewService(
	client upstream,
	availabilityService availability.Service,
	engine *selection.Engine,
	week schedule.Week,
	machineID, coworkerID int64,
	maxBookingHours, maxBookingDurationMinutes int,
) Service {
	return &service{
		client:                    client,
		availability:              availabilityService,
		engine:                    engine,
		week:                      week,
		machineID:                 machineID,
		coworkerID:                coworkerID,
		maxBookingHours:           maxBookingHours,
		maxBookingDurationMinutes: maxBookingDurationMinutes,
		now:                       time.Now,
	}
}

func (s *service) Submit(ctx context.Context, req Request) (*Response, error) {
	timing, resp, err := s.validateRequest(req)
	if err != nil || resp != nil {
		return resp, err
	}

	day, err := s.availability.DayFor(ctx, timing.Date, false)
	if err != nil {
		return nil, err
	}

	if rejected := s.validateRange(timing, day); rejected != nil {
		return rejected, nil
	}

	uniqueID := uuid.NewString()
	if rejected, err := s.validatePreview(ctx, timing, uniqueID); err != nil || rejected != nil {
		return rejected, err
	}

	basket := makerspace.NewBasketRequest(makerspace.BasketBooking{
		UniqueID:   uniqueID,
		FromTime:   upstreamTime(timing.Start),
		ToTime:     upstreamTime(timing.End),
		ResourceID: s.machineID,
		CoworkerID: s.coworkerID,
	})
	if err := s.client.BookBasket(ctx, basket); err != nil {
		if apperror.IsUnauthorized(err) {
			return nil, err
		}
		return failure(bookingFailureMessage(err)), nil
	}
	return &Response{Success: true, Message: "Booking confirmed.", Errors: []string{}}, nil
}

func (s *service) SubmitScheduled(ctx context.Context, req Request) (*Response, error) {
	resp, err := s.Submit(ctx, req)
	if err == nil || !apperror.IsUnauthorized(err) {
		return resp, err
	}
	if loginErr := s.client.LoginWithStored(ctx); loginErr != nil {
		return nil, loginErr
	}
	return s.Submit(ctx, req)
}

// validateRequest checks the request in isolation: required fields, positive
// duration within the maximum, single-day range, open day, working hours and
// the booking horizon. It returns a refusal Response for rule violations and
// an error only for unparsable input.
func (s *service) validateRequest(req Request) (Timing, *Response, error) {
	if req.Date == "" || req.StartTime == "" {
		return Timing{}, failure("Missing booking details.", "Date and start time are required."), nil
	}
	date, err := timeutil.ParseDate(req.Date, s.now().Location())
	if err != nil {
		return Timing{}, nil, apperror.Wrap(err, http.StatusBadRequest, fmt.Sprintf("Invalid date %q.", req.Date))
	}
	startMinutes, err := timeutil.TimeToMinutes(req.StartTime)
	if err != nil {
		return Timing{}, nil, apperror.Wrap(err, http.StatusBadRequest, fmt.Sprintf("Invalid start time %q.", req.StartTime))
	}

	if req.DurationMinutes <= 0 {
		return Timing{}, failure("Invalid booking duration.", "Duration must be positive."), nil
	}
	if req.DurationMinutes > s.maxBookingDurationMinutes {
		return Timing{}, failure("Booking is too long.",
			fmt.Sprintf("Maximum booking duration is %d hours.", s.maxBookingDurationMinutes/60)), nil
	}

	endMinutes := startMinutes + req.DurationMinutes
	if endMinutes > timeutil.MinutesPerDay {
		return Timing{}, failure("Booking must stay within a single day.", "Choose a shorter duration."), nil
	}

	window := s.week.WindowForDate(date)
	if window.IsClosed() {
		return Timing{}, failure("Bookings are not available on Sundays.", "Pick a weekday or Saturday."), nil
	}
	if startMinutes < window.StartMinutes || endMinutes > window.EndMinutes {
		return Timing{}, failure("Booking is outside working hours.",
			fmt.Sprintf("Working hours are %s Mon-Fri and %s Sat.", s.week.Weekday.Label(), s.week.Saturday.Label())), nil
	}

	start := date.Add(time.Duration(startMinutes) * time.Minute)
	if start.After(timeutil.AddHours(s.now(), s.maxBookingHours)) {
		return Timing{}, failure("Booking is too far in the future.",
			fmt.Sprintf("Maximum is %d hours ahead.", s.maxBookingHours)), nil
	}

	return Timing{
		Date:            date,
		StartMinutes:    startMinutes,
		DurationMinutes: req.DurationMinutes,
		Start:           start,
		End:             start.Add(time.Duration(req.DurationMinutes) * time.Minute),
	}, nil, nil
}

// validateRange runs the selection engine against the day's real slot data.
func (s *service) validateRange(timing Timing, day *availability.Day) *Response {
	state := selection.State{
		Mode:      selection.ModeNormal,
		Date:      timing.Date,
		StartTime: timeutil.MinutesToTime(timing.StartMinutes),
		EndTime:   timeutil.MinutesToTime(timing.StartMinutes + timing.DurationMinutes),
		Day:       day,
	}
	if result := s.engine.Validate(state); !result.Valid {
		return failure("Selected time is not available.", result.Message)
	}
	return nil
}

// validatePreview asks the provider to preview the invoice and refuses the
// booking when the preview carries errors or reports failure.
func (s *service) validatePreview(ctx context.Context, timing Timing, uniqueID string) (*Response, error) {
	item := makerspace.NewPreviewItem(makerspace.PreviewBooking{
		ResourceID: s.machineID,
		FromTime:   upstreamTime(timing.Start),
		ToTime:     upstreamTime(timing.End),
		CoworkerID: s.coworkerID,
		ChargeNow:  true,
		UniqueID:   uniqueID,
	})
	preview, err := s.client.PreviewInvoice(ctx, []makerspace.PreviewItem{item})
	if err != nil {
		if apperror.IsUnauthorized(err) {
			return nil, err
		}
		return failure("Booking preview failed.", "Unable to validate the booking."), nil
	}

	if previewErrors := preview.ErrorMessages(); len(previewErrors) > 0 {
		message := preview.Message
		if message == "" {
			message = "Booking is not available."
		}
		return failure(message, previewErrors...), nil
	}
	if preview.WasSuccessful != nil && !*preview.WasSuccessful {
		message := preview.Message
		if message == "" {
			message = "Booking preview failed."
		}
		return failure(message), nil
	}
	return nil, nil
}

func (s *service) Pending(ctx context.Context) ([]PendingBooking, error) {
	resp, err := s.client.MyBookings(ctx, myBookingsDepth)
	if err != nil {
		return nil, err
	}
	now := s.now()

	pending := make([]PendingBooking, 0, len(resp.MyBookings))
	for _, b := range resp.MyBookings {
		if b.IsCancelled {
			continue
		}
		if to, err := parseUpstreamTime(b.ToTime); err == nil && !to.After(now) {
			continue
		}
		pending = append(pending, PendingBooking{
			ID:            b.ID,
			BookingNumber: b.BookingNumber,
			FromTime:      b.FromTime,
			ToTime:        b.ToTime,
			CreatedOn:     b.CreatedOn,
		})
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].FromTime < pending[j].FromTime })
	return pending, nil
}

func (s *service) Cancel(ctx context.Context, id int64) error {
	return s.client.CancelBooking(ctx, id)
}

// upstreamTime renders an instant the way the provider expects its booking
// times: the local wall-clock reading stamped as UTC.
func upstreamTime(t time.Time) string {
	return t.Format(makerspace.LocalDateTimeLayout) + "Z"
}

func parseUpstreamTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(makerspace.LocalDateTimeLayout, value)
}

func bookingFailureMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Booking failed."
}
