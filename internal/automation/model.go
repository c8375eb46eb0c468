package automation

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "Job not found.")
	ErrInvalidStatus = apperror.New(http.StatusBadRequest, "Status must be ACTIVE or INACTIVE.")
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// ParseStatus validates a status string.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusActive, StatusInactive:
		return Status(value), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Job is a recurring auto-booking definition. The backend retries it weekly
// on the job's weekday until the target date is booked.
type Job struct {
	ID             uuid.UUID
	StartDate      time.Time
	DayOfWeek      time.Weekday
	StartTime      string
	EndTime        string
	Status         Status
	LastAttemptAt  *time.Time
	LastBookedDate *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DurationMinutes is the booking length derived from the job's time range.
func (j *Job) DurationMinutes() int {
	start, errS := timeutil.TimeToMinutes(j.StartTime)
	end, errE := timeutil.TimeToMinutes(j.EndTime)
	if errS != nil || errE != nil || end <= start {
		return 0
	}
	return end - start
}

// Attempt is one logged booking try of a job.
type Attempt struct {
	ID         uuid.UUID
	JobID      uuid.UUID
	TargetDate time.Time
	StartTime  string
	EndTime    string
	Success    bool
	Message    string
	OccurredAt time.Time
}
