package auth

import "github.com/gin-gonic/gin"

// GetUsername returns the authenticated user's upstream login or empty string.
func GetUsername(c *gin.Context) string {
	if v, ok := c.Get("username"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
