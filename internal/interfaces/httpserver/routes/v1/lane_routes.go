package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/drivethru-server/internal/interfaces/httpserver/handlers"
)

// RegisterLaneRoutes registers the lane and session routes.
func RegisterLaneRoutes(router gin.IRoutes, handler *handlers.LaneHandler) {
	// Car arrival and lane lookup
	router.POST("/lanes/:lane/sessions", handler.StartSession)
	router.GET("/lanes/:lane/session", handler.CurrentSession)

	// Ordering
	router.GET("/sessions/:id", handler.GetSession)
	router.GET("/sessions/:id/order", handler.GetOrder)
	router.POST("/sessions/:id/utterances", handler.SubmitUtterance)
	router.DELETE("/sessions/:id", handler.EndSession)
}
