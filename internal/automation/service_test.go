package automation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/partolaaa/maker-space-tools/internal/schedule"
)

type fakeJobRepository struct {
	jobs    map[string]*Job
	created *Job
}

func newFakeJobRepository() *fakeJobRepository {
	return &fakeJobRepository{jobs: map[string]*Job{}}
}

func (r *fakeJobRepository) Create(_ context.Context, job *Job) error {
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	r.jobs[job.ID.String()] = job
	r.created = job
	return nil
}

func (r *fakeJobRepository) GetByID(_ context.Context, id string) (*Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

func (r *fakeJobRepository) List(_ context.Context) ([]*Job, error) {
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (r *fakeJobRepository) UpdateStatus(_ context.Context, id string, status Status) error {
	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Status = status
	return nil
}

func (r *fakeJobRepository) UpdateAfterAttempt(_ context.Context, id string, attemptAt time.Time, bookedDate *time.Time) error {
	job, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.LastAttemptAt = &attemptAt
	if bookedDate != nil {
		job.LastBookedDate = bookedDate
	}
	return nil
}

func (r *fakeJobRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

type fakeAttemptRepository struct {
	added []*Attempt
}

func (r *fakeAttemptRepository) Add(_ context.Context, attempt *Attempt) error {
	attempt.OccurredAt = time.Now()
	r.added = append(r.added, attempt)
	return nil
}

func (r *fakeAttemptRepository) List(_ context.Context, limit int) ([]*Attempt, error) {
	if limit > len(r.added) {
		limit = len(r.added)
	}
	return r.added[:limit], nil
}

func newTestAutomationService(jobs JobRepository, attempts AttemptRepository) Service {
	return NewService(jobs, attempts, schedule.DefaultWeek(), time.UTC, 240, 30, 100)
}

func TestCreateJobDerivesWeekday(t *testing.T) {
	repo := newFakeJobRepository()
	svc := newTestAutomationService(repo, &fakeAttemptRepository{})

	job, err := svc.Create(context.Background(), CreateRequest{
		StartDate: "2026-03-04",
		StartTime: "10:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	require.Equal(t, time.Wednesday, job.DayOfWeek)
	require.Equal(t, StatusActive, job.Status)
	require.NotEqual(t, uuid.Nil, job.ID)
	require.Equal(t, 120, job.DurationMinutes())
	require.Same(t, job, repo.created)
}

func TestCreateJobValidation(t *testing.T) {
	cases := []struct {
		name    string
		req     CreateRequest
		message string
	}{
		{
			name:    "missing start date",
			req:     CreateRequest{StartTime: "10:00", EndTime: "12:00"},
			message: "Start date is required.",
		},
		{
			name:    "missing times",
			req:     CreateRequest{StartDate: "2026-03-04", StartTime: "10:00"},
			message: "Start and end time are required.",
		},
		{
			name:    "end before start",
			req:     CreateRequest{StartDate: "2026-03-04", StartTime: "12:00", EndTime: "10:00"},
			message: "End time must be after start time.",
		},
		{
			name:    "closed day",
			req:     CreateRequest{StartDate: "2026-03-08", StartTime: "10:00", EndTime: "12:00"},
			message: "Bookings are not available on Sundays.",
		},
		{
			name:    "outside working hours",
			req:     CreateRequest{StartDate: "2026-03-04", StartTime: "07:00", EndTime: "09:00"},
			message: "Time must be within 08:00 and 16:00.",
		},
		{
			name:    "too long",
			req:     CreateRequest{StartDate: "2026-03-04", StartTime: "09:00", EndTime: "14:00"},
			message: "Maximum booking duration is 4 hours.",
		},
		{
			name:    "unaligned",
			req:     CreateRequest{StartDate: "2026-03-04", StartTime: "09:00", EndTime: "09:45"},
			message: "Times must align to 30-minute slots.",
		},
		{
			name:    "bad status",
			req:     CreateRequest{StartDate: "2026-03-04", StartTime: "10:00", EndTime: "12:00", Status: "PAUSED"},
			message: "Status must be ACTIVE or INACTIVE.",
		},
	}

	svc := newTestAutomationService(newFakeJobRepository(), &fakeAttemptRepository{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			require.Error(t, err)
			require.Equal(t, tc.message, err.Error())
		})
	}
}

func TestUpdateStatusReturnsUpdatedJob(t *testing.T) {
	repo := newFakeJobRepository()
	svc := newTestAutomationService(repo, &fakeAttemptRepository{})

	job, err := svc.Create(context.Background(), CreateRequest{
		StartDate: "2026-03-07",
		StartTime: "09:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)
	require.Equal(t, time.Saturday, job.DayOfWeek)

	updated, err := svc.UpdateStatus(context.Background(), job.ID.String(), "INACTIVE")
	require.NoError(t, err)
	require.Equal(t, StatusInactive, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), uuid.NewString(), "INACTIVE")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateStatus(context.Background(), job.ID.String(), "paused")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAttemptsClampsLimit(t *testing.T) {
	attempts := &fakeAttemptRepository{}
	for i := 0; i < 5; i++ {
		require.NoError(t, attempts.Add(context.Background(), &Attempt{ID: uuid.New()}))
	}
	svc := newTestAutomationService(newFakeJobRepository(), attempts)

	listed, err := svc.Attempts(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	listed, err = svc.Attempts(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, listed, 5)

	listed, err = svc.Attempts(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, listed, 5)
}
