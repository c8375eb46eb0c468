package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	machines := g.Group("/machines")
	machines.Use(authMiddleware)
	{
		machines.GET("/availability", h.Availability)
		machines.POST("/bookings", h.Create)
	}

	bookings := g.Group("/bookings")
	bookings.Use(authMiddleware)
	{
		bookings.GET("/pending", h.Pending)
		bookings.POST("/cancel/:id", h.Cancel)
	}
}
