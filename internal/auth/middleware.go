package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/partolaaa/maker-space-tools/internal/pkg/response"
)

// SessionCookieName is the HttpOnly cookie carrying the session JWT.
const SessionCookieName = "ms_session"

// AuthRequired is a Gin middleware that validates the session JWT from the
// session cookie, or from Authorization: Bearer <token> for non-browser
// callers.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := sessionToken(c)
		if tokenStr == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseAndValidate(tokenStr)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		// Store user info into Gin context for later handlers.
		c.Set("username", claims.Username)

		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// SessionValid reports whether the request carries a valid session token,
// without aborting.
func SessionValid(c *gin.Context, jwtManager *JWTManager) bool {
	tokenStr := sessionToken(c)
	if tokenStr == "" {
		return false
	}
	_, err := jwtManager.ParseAndValidate(tokenStr)
	return err == nil
}
