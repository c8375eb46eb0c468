package http

import (
	"strings"
	"time"

	"github.com/partolaaa/maker-space-tools/internal/automation"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

type CreateJobRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Status    string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

type UpdateJobRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE"`
}

type JobResponse struct {
	ID             string  `json:"id"`
	StartDate      string  `json:"startDate"`
	DayOfWeek      string  `json:"dayOfWeek"`
	StartTime      string  `json:"startTime"`
	EndTime        string  `json:"endTime"`
	Status         string  `json:"status"`
	LastAttemptAt  *string `json:"lastAttemptAt"`
	LastBookedDate *string `json:"lastBookedDate"`
	CreatedAt      string  `json:"createdAt"`
}

func NewJobResponse(job *automation.Job) JobResponse {
	resp := JobResponse{
		ID:        job.ID.String(),
		StartDate: timeutil.FormatDate(job.StartDate),
		DayOfWeek: strings.ToUpper(job.DayOfWeek.String()),
		StartTime: job.StartTime,
		EndTime:   job.EndTime,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	if job.LastAttemptAt != nil {
		v := job.LastAttemptAt.Format(time.RFC3339)
		resp.LastAttemptAt = &v
	}
	if job.LastBookedDate != nil {
		v := timeutil.FormatDate(*job.LastBookedDate)
		resp.LastBookedDate = &v
	}
	return resp
}

func NewJobListResponse(jobs []*automation.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, NewJobResponse(job))
	}
	return out
}

type AttemptResponse struct {
	ID         string `json:"id"`
	JobID      string `json:"jobId"`
	TargetDate string `json:"targetDate"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	OccurredAt string `json:"occurredAt"`
}

func NewAttemptListResponse(attempts []*automation.Attempt) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, AttemptResponse{
			ID:         a.ID.String(),
			JobID:      a.JobID.String(),
			TargetDate: timeutil.FormatDate(a.TargetDate),
			StartTime:  a.StartTime,
			EndTime:    a.EndTime,
			Success:    a.Success,
			Message:    a.Message,
			OccurredAt: a.OccurredAt.Format(time.RFC3339),
		})
	}
	return out
}
