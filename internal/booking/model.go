package booking

import (
	"time"
)

// Request is an incoming booking request.
type Request struct {
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"startTime" binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"required"`
}

// Response is the uniform booking outcome. A refused booking is a Response
// with Success false, not an error; errors are reserved for unauthorized and
// request-level failures.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func failure(message string, errors ...string) *Response {
	if errors == nil {
		errors = []string{}
	}
	return &Response{Message: message, Errors: errors}
}

// Timing is the resolved timing of a validated booking request.
type Timing struct {
	Date            time.Time
	StartMinutes    int
	DurationMinutes int
	Start           time.Time
	End             time.Time
}

// PendingBooking is an active future booking of the current user.
type PendingBooking struct {
	ID            int64  `json:"id"`
	BookingNumber int64  `json:"bookingNumber"`
	FromTime      string `json:"fromTime"`
	ToTime        string `json:"toTime"`
	CreatedOn     string `json:"createdOn"`
}
