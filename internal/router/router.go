package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/ticketly/seating-service/internal/handler"
)

// RegisterRoutes wires the seating surface onto the provided Echo
// instance. limit is the rate-limiting middleware applied to mutating
// endpoints only; reads stay unthrottled so availability polling during an
// on-sale does not starve purchasers.
func RegisterRoutes(e *echo.Echo, h *handler.SeatingHandler, limit echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1/seats")

	// Read surface. Static paths are registered before the :id parameter
	// route; echo matches them first.
	g.GET("/availability", h.GetAvailability)
	g.GET("", h.ListSeats)
	g.GET("/order/:orderId", h.GetSeatsByOrder)
	g.GET("/:id", h.GetSeat)

	// Mutating surface.
	g.POST("/reserve", h.Reserve, limit)
	g.POST("/allocate", h.Allocate, limit)
	g.POST("/release", h.Release, limit)
	g.POST("", h.CreateSeat, limit)
	g.PATCH("/:id/block", h.Block, limit)
	g.PATCH("/:id/unblock", h.Unblock, limit)
}
