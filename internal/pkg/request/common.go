package request

// ByJobIDRequest binds the job id path parameter of automation endpoints.
type ByJobIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ByBookingIDRequest binds the numeric upstream booking id path parameter.
type ByBookingIDRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

// LimitQuery binds the optional result-limit query parameter used by the
// attempt feed.
type LimitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
