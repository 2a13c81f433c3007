// Package handler contains the thin HTTP layer over the reservation core.
// Handlers parse and forward; all state logic lives in the service
// package, and httpError maps the domain error taxonomy to status codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ticketly/seating-service/internal/model"
	"github.com/ticketly/seating-service/internal/service"
)

// SeatingHandler exposes the seat reservation surface. Identity is
// supplied by the caller (the platform's user directory fronts this
// service); requests carry a bare user id.
type SeatingHandler struct {
	Coordinator *service.ReservationCoordinator
	Projector   *service.AvailabilityProjector
}

// NewSeatingHandler constructs a SeatingHandler. Both dependencies must be
// non-nil.
func NewSeatingHandler(coord *service.ReservationCoordinator, proj *service.AvailabilityProjector) *SeatingHandler {
	if coord == nil || proj == nil {
		panic("nil dependency passed to NewSeatingHandler")
	}
	return &SeatingHandler{Coordinator: coord, Projector: proj}
}

// httpError translates the domain error taxonomy into an HTTP response.
func httpError(c echo.Context, err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": conflict.Reason,
			"seats": conflict.SeatNumbers,
		})
	case errors.Is(err, service.ErrSeatNotFound),
		errors.Is(err, service.ErrSeatsNotFound),
		errors.Is(err, service.ErrNoSeatsForEvent):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrEventMismatch),
		errors.Is(err, service.ErrEmptySeatIDs),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func parseEventID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.QueryParam("eventId"), 10, 64)
	return id, err == nil && id != 0
}

// GetAvailability handles GET /v1/seats/availability?eventId=N.
func (h *SeatingHandler) GetAvailability(c echo.Context) error {
	eventID, ok := parseEventID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid eventId"})
	}
	av, err := h.Projector.Availability(c.Request().Context(), eventID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// ListSeats handles GET /v1/seats?eventId=N&status=RESERVED.
func (h *SeatingHandler) ListSeats(c echo.Context) error {
	eventID, ok := parseEventID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid eventId"})
	}
	status := model.SeatStatus(strings.ToUpper(c.QueryParam("status")))
	seats, err := h.Coordinator.ListSeats(c.Request().Context(), eventID, status)
	if err != nil {
		return httpError(c, err)
	}
	if seats == nil {
		seats = []model.Seat{}
	}
	return c.JSON(http.StatusOK, seats)
}

// GetSeat handles GET /v1/seats/:id.
func (h *SeatingHandler) GetSeat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	seat, err := h.Coordinator.GetSeat(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}

// GetSeatsByOrder handles GET /v1/seats/order/:orderId.
func (h *SeatingHandler) GetSeatsByOrder(c echo.Context) error {
	orderID := c.Param("orderId")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid orderId"})
	}
	seats, err := h.Coordinator.ListSeatsByOrder(c.Request().Context(), orderID)
	if err != nil {
		return httpError(c, err)
	}
	if seats == nil {
		seats = []model.Seat{}
	}
	return c.JSON(http.StatusOK, seats)
}

// Reserve handles POST /v1/seats/reserve. The request either reserves all
// of the listed seats or none of them.
func (h *SeatingHandler) Reserve(c echo.Context) error {
	var body struct {
		EventID uint64   `json:"eventId"`
		SeatIDs []uint64 `json:"seatIds"`
		UserID  uint64   `json:"userId"`
		// Accepted for wire compatibility; the order id only binds a
		// seat at allocation time.
		OrderID string `json:"orderId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EventID == 0 || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventId and userId are required"})
	}
	res, err := h.Coordinator.Reserve(c.Request().Context(), body.EventID, body.SeatIDs, body.UserID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Allocate handles POST /v1/seats/allocate, confirming a hold against an
// order.
func (h *SeatingHandler) Allocate(c echo.Context) error {
	var body struct {
		SeatIDs []uint64 `json:"seatIds"`
		OrderID string   `json:"orderId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.OrderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "orderId is required"})
	}
	if err := h.Coordinator.Allocate(c.Request().Context(), body.SeatIDs, body.OrderID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "seats allocated"})
}

// Release handles POST /v1/seats/release. The body is a bare JSON array of
// seat ids. Releasing unknown or already-available seats is not an error;
// note the reset also applies to ALLOCATED seats, so this doubles as the
// administrative recovery path.
func (h *SeatingHandler) Release(c echo.Context) error {
	var seatIDs []uint64
	if err := c.Bind(&seatIDs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Coordinator.Release(c.Request().Context(), seatIDs); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "seats released"})
}

// CreateSeat handles POST /v1/seats (administrative).
func (h *SeatingHandler) CreateSeat(c echo.Context) error {
	var body struct {
		EventID    uint64         `json:"eventId"`
		SeatNumber string         `json:"seatNumber"`
		RowNumber  string         `json:"rowNumber"`
		Section    string         `json:"section"`
		Type       model.SeatType `json:"type"`
		Price      float64        `json:"price"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.EventID == 0 || body.SeatNumber == "" || body.RowNumber == "" || body.Section == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eventId, seatNumber, rowNumber and section are required"})
	}
	seat := &model.Seat{
		EventID:    body.EventID,
		SeatNumber: body.SeatNumber,
		RowNumber:  body.RowNumber,
		Section:    body.Section,
		Type:       body.Type,
		Price:      body.Price,
	}
	if err := h.Coordinator.CreateSeat(c.Request().Context(), seat); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, seat)
}

// Block handles PATCH /v1/seats/:id/block.
func (h *SeatingHandler) Block(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Coordinator.Block(c.Request().Context(), id); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "seat blocked"})
}

// Unblock handles PATCH /v1/seats/:id/unblock.
func (h *SeatingHandler) Unblock(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Coordinator.Unblock(c.Request().Context(), id); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "seat unblocked"})
}
