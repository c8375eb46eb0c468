package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/partolaaa/maker-space-tools/internal/auth"
	automationHttp "github.com/partolaaa/maker-space-tools/internal/automation/http"
	bookingHttp "github.com/partolaaa/maker-space-tools/internal/booking/http"
)

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(
	authHandler *AuthHandler,
	bookingHandler *bookingHttp.Handler,
	automationHandler *automationHttp.Handler,
	jwtManager *auth.JWTManager,
	prodOrigins string,
) *gin.Engine {

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing). Credentials are
	// allowed because the session rides an HttpOnly cookie.
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins(prodOrigins)
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	r.Use(cors.New(config))

	// authMiddleware: Validates if the request contains a valid session JWT.
	authMiddleware := auth.AuthRequired(jwtManager)

	// Register API routes under /api
	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/status", authHandler.Status)
			authGroup.POST("/logout", authHandler.Logout)
		}

		bookingHttp.RegisterRoutes(api, bookingHandler, authMiddleware)
		automationHttp.RegisterRoutes(api, automationHandler, authMiddleware)
	}

	return r
}

func allowedOrigins(prodOrigins string) []string {
	origins := []string{
		"http://localhost:5173", // Vite dev server
	}
	for _, origin := range strings.Split(prodOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
