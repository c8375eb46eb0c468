package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partolaaa/maker-space-tools/internal/availability"
	"github.com/partolaaa/maker-space-tools/internal/booking"
	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/pkg/request"
	"github.com/partolaaa/maker-space-tools/internal/pkg/response"
	"github.com/partolaaa/maker-space-tools/internal/timeutil"
)

type Handler struct {
	service      booking.Service
	availability availability.Service
	loc          *time.Location
}

func NewHandler(service booking.Service, availabilityService availability.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{service: service, availability: availabilityService, loc: loc}
}

func (h *Handler) Availability(c *gin.Context) {
	var query AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Query parameter 'date' is required."))
		return
	}
	date, err := timeutil.ParseDate(query.Date, h.loc)
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Date must be formatted as YYYY-MM-DD."))
		return
	}

	day, err := h.availability.DayFor(c.Request.Context(), date, query.Auto)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAvailabilityResponse(query.Date, day))
}

func (h *Handler) Create(c *gin.Context) {
	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Invalid booking request body."))
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Pending(c *gin.Context) {
	bookings, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, PendingBookingsResponse{Bookings: bookings})
}

func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByBookingIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Invalid booking id."))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
