package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partolaaa/maker-space-tools/internal/automation"
	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/pkg/request"
	"github.com/partolaaa/maker-space-tools/internal/pkg/response"
)

type Handler struct {
	service automation.Service
}

func NewHandler(service automation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	jobs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewJobListResponse(jobs))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateJobRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Invalid job request body."))
		return
	}

	job, err := h.service.Create(c.Request.Context(), automation.CreateRequest{
		StartDate: body.StartDate,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Status:    body.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewJobResponse(job))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var params request.ByJobIDRequest
	if err := c.ShouldBindUri(&params); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Invalid job id."))
		return
	}
	var body UpdateJobRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, automation.ErrInvalidStatus)
		return
	}

	job, err := h.service.UpdateStatus(c.Request.Context(), params.ID, body.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewJobResponse(job))
}

func (h *Handler) Delete(c *gin.Context) {
	var params request.ByJobIDRequest
	if err := c.ShouldBindUri(&params); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Invalid job id."))
		return
	}
	if err := h.service.Delete(c.Request.Context(), params.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Attempts(c *gin.Context) {
	var query request.LimitQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "Invalid limit parameter."))
		return
	}
	attempts, err := h.service.Attempts(c.Request.Context(), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewAttemptListResponse(attempts))
}
