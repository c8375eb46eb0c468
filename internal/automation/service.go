package automation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/schedule"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

// CreateRequest describes a new auto-booking job. The weekday is derived
// from the start date.
type CreateRequest struct {
	StartDate string
	StartTime string
	EndTime   string
	Status    string
}

// MaxAttemptQueryLimit caps and defaults the attempt feed page size.
const MaxAttemptQueryLimit = 100

type Service interface {
	List(ctx context.Context) ([]*Job, error)
	Create(ctx context.Context, req CreateRequest) (*Job, error)
	UpdateStatus(ctx context.Context, id string, status string) (*Job, error)
	Delete(ctx context.Context, id string) error
	Attempts(ctx context.Context, limit int) ([]*Attempt, error)
}

type service struct {
	jobs     JobRepository
	attempts AttemptRepository
	week     schedule.Week
	loc      *time.Location

	maxDurationMinutes int
	slotMinutes        int
	maxAttemptLimit    int
}

func NewService(jobs JobRepository, attempts AttemptRepository, week schedule.Week, loc *time.Location, maxDurationMinutes, slotMinutes, maxAttemptLimit int) Service {
	if loc == nil {
		loc = time.Local
	}
	return &service{
		jobs:               jobs,
		attempts:           attempts,
		week:               week,
		loc:                loc,
		maxDurationMinutes: maxDurationMinutes,
		slotMinutes:        slotMinutes,
		maxAttemptLimit:    maxAttemptLimit,
	}
}

func (s *service) List(ctx context.Context) ([]*Job, error) {
	return s.jobs.List(ctx)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Job, error) {
	job, err := s.buildJob(req)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// buildJob validates the request under the auto-selection rules: times in
// order and inside the weekday's working hours, duration within the maximum
// and aligned to the slot size.
func (s *service) buildJob(req CreateRequest) (*Job, error) {
	if req.StartDate == "" {
		return nil, apperror.New(http.StatusBadRequest, "Start date is required.")
	}
	if req.StartTime == "" || req.EndTime == "" {
		return nil, apperror.New(http.StatusBadRequest, "Start and end time are required.")
	}

	startDate, err := timeutil.ParseDate(req.StartDate, s.loc)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("Invalid start date %q.", req.StartDate))
	}
	startMinutes, err := timeutil.TimeToMinutes(req.StartTime)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("Invalid start time %q.", req.StartTime))
	}
	endMinutes, err := timeutil.TimeToMinutes(req.EndTime)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("Invalid end time %q.", req.EndTime))
	}

	if startMinutes >= endMinutes {
		return nil, apperror.New(http.StatusBadRequest, "End time must be after start time.")
	}

	window := s.week.WindowForDate(startDate)
	if window.IsClosed() {
		return nil, apperror.New(http.StatusBadRequest, "Bookings are not available on Sundays.")
	}
	if startMinutes < window.StartMinutes || endMinutes > window.EndMinutes {
		return nil, apperror.New(http.StatusBadRequest,
			fmt.Sprintf("Time must be within %s and %s.",
				timeutil.MinutesToTime(window.StartMinutes), timeutil.MinutesToTime(window.EndMinutes)))
	}

	duration := endMinutes - startMinutes
	if duration > s.maxDurationMinutes {
		return nil, apperror.New(http.StatusBadRequest,
			fmt.Sprintf("Maximum booking duration is %d hours.", s.maxDurationMinutes/60))
	}
	if duration%s.slotMinutes != 0 {
		return nil, apperror.New(http.StatusBadRequest,
			fmt.Sprintf("Times must align to %d-minute slots.", s.slotMinutes))
	}

	status := StatusActive
	if req.Status != "" {
		status, err = ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
	}

	return &Job{
		ID:        uuid.New(),
		StartDate: startDate,
		DayOfWeek: startDate.Weekday(),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    status,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status string) (*Job, error) {
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.UpdateStatus(ctx, id, parsed); err != nil {
		return nil, err
	}
	return s.jobs.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.jobs.Delete(ctx, id)
}

func (s *service) Attempts(ctx context.Context, limit int) ([]*Attempt, error) {
	if limit < 1 || limit > s.maxAttemptLimit {
		limit = s.maxAttemptLimit
	}
	return s.attempts.List(ctx, limit)
}
