package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	automation := g.Group("/automation")
	automation.Use(authMiddleware)
	{
		automation.GET("/jobs", h.List)
		automation.POST("/jobs", h.Create)
		automation.PATCH("/jobs/:id", h.UpdateStatus)
		automation.DELETE("/jobs/:id", h.Delete)
		automation.GET("/attempts", h.Attempts)
	}
}
