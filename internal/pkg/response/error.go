package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Message string `json:"message"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, ErrorResponse{Message: appErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
}

// Unauthorized sends the bare 401 used by the auth middleware and the
// upstream 401 pass-through. The body carries a message so browser callers
// can distinguish it from an empty reply.
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized"})
}
