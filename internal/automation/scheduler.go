package automation

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/partolaaa/maker-space-tools/internal/booking"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

const (
	successMessage = "Booking succeeded."
	failureMessage = "Booking failed."
)

// Scheduler drives auto-booking jobs on a cron cadence. Each tick it walks
// the stored jobs, resolves the next occurrence of each job's weekday and
// attempts any job whose start has entered the booking horizon.
type Scheduler struct {
	jobs     JobRepository
	attempts AttemptRepository
	booker   booking.Service

	maxBookingHours int
	attemptInterval time.Duration
	spec            string

	cron *cron.Cron
	now  func() time.Time
}

func NewScheduler(jobs JobRepository, attempts AttemptRepository, booker booking.Service, maxBookingHours int, attemptInterval time.Duration, spec string) *Scheduler {
	return &Scheduler{
		jobs:            jobs,
		attempts:        attempts,
		booker:          booker,
		maxBookingHours: maxBookingHours,
		attemptInterval: attemptInterval,
		spec:            spec,
		now:             time.Now,
	}
}

// Start registers the cron entry and begins ticking. It returns an error
// only for an invalid cron spec.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[automation] scheduler started (%s)", s.spec)
	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Printf("[automation] scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		log.Printf("[automation] listing jobs: %v", err)
		return
	}
	now := s.now()
	for _, job := range jobs {
		target := resolveTargetDate(job, now)
		if !s.shouldAttempt(job, target, now) {
			continue
		}
		s.attempt(ctx, job, target, now)
	}
}

// resolveTargetDate finds the next date on the job's weekday, starting from
// today or from the job's start date when that is still in the future. A
// same-day occurrence whose start time has already passed rolls one week.
func resolveTargetDate(job *Job, now time.Time) time.Time {
	base := timeutil.StartOfDay(now)
	start := timeutil.StartOfDay(job.StartDate)
	if start.After(base) {
		base = start
	}

	offset := (int(job.DayOfWeek) - int(base.Weekday()) + 7) % 7
	target := base.AddDate(0, 0, offset)

	if timeutil.SameDay(target, now) {
		startMinutes, err := timeutil.TimeToMinutes(job.StartTime)
		if err == nil && minutesOfDay(now) >= startMinutes {
			target = target.AddDate(0, 0, 7)
		}
	}
	return target
}

// shouldAttempt gates one booking try: the job must be active, the target
// not yet booked, the start inside the booking horizon and the previous
// attempt old enough.
func (s *Scheduler) shouldAttempt(job *Job, target time.Time, now time.Time) bool {
	if job.Status != StatusActive {
		return false
	}
	if job.LastBookedDate != nil && timeutil.SameDay(*job.LastBookedDate, target) {
		return false
	}

	startMinutes, err := timeutil.TimeToMinutes(job.StartTime)
	if err != nil {
		return false
	}
	startInstant := target.Add(time.Duration(startMinutes) * time.Minute)
	if startInstant.Before(now) || startInstant.After(timeutil.AddHours(now, s.maxBookingHours)) {
		return false
	}

	if job.LastAttemptAt != nil && now.Sub(*job.LastAttemptAt) < s.attemptInterval {
		return false
	}
	return true
}

func (s *Scheduler) attempt(ctx context.Context, job *Job, target time.Time, now time.Time) {
	req := booking.Request{
		Date:            timeutil.FormatDate(target),
		StartTime:       job.StartTime,
		DurationMinutes: job.DurationMinutes(),
	}
	resp, err := s.booker.SubmitScheduled(ctx, req)

	success := err == nil && resp != nil && resp.Success
	message := attemptMessage(resp, success)
	if err != nil {
		message = err.Error()
	}
	log.Printf("[automation] job %s for %s: %s", job.ID, req.Date, message)

	attempt := &Attempt{
		ID:         uuid.New(),
		JobID:      job.ID,
		TargetDate: target,
		StartTime:  job.StartTime,
		EndTime:    job.EndTime,
		Success:    success,
		Message:    message,
	}
	if err := s.attempts.Add(ctx, attempt); err != nil {
		log.Printf("[automation] recording attempt for job %s: %v", job.ID, err)
	}

	var bookedDate *time.Time
	if success {
		bookedDate = &target
	}
	if err := s.jobs.UpdateAfterAttempt(ctx, job.ID.String(), now, bookedDate); err != nil {
		log.Printf("[automation] updating job %s: %v", job.ID, err)
	}
}

func attemptMessage(resp *booking.Response, success bool) string {
	if resp != nil && resp.Message != "" {
		return resp.Message
	}
	if success {
		return successMessage
	}
	return failureMessage
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
