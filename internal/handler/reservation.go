package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/service"
)

// ReservationHandler serves the participant and host sides of the
// reservation lifecycle.
type ReservationHandler struct {
	Svc *service.ReservationService
	Log *zap.Logger
}

// NewReservationHandler panics when svc is nil.
func NewReservationHandler(svc *service.ReservationService, log *zap.Logger) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationHandler{Svc: svc, Log: log}
}

type reservationRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=going maybe not_going"`
}

// Request handles POST /events/:event_id/reservations with body
// {"status": "going"|"maybe"|"not_going"}; status defaults to going.  It
// returns 201 when the reservation was created and 200 when an existing one
// was updated.
func (h *ReservationHandler) Request(c echo.Context) error {
	var body reservationRequest
	if err := bindBody(c, &body); err != nil {
		return writeError(c, h.Log, err)
	}
	res, created, err := h.Svc.RequestReservation(c.Request().Context(),
		c.Param("event_id"), getUserID(c), model.ReservationStatus(body.Status))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, res)
}

// Cancel handles DELETE /events/:event_id/reservations/me.  Cancelling a
// reservation that does not exist still returns 204.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	if err := h.Svc.CancelReservation(c.Request().Context(), c.Param("event_id"), getUserID(c)); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Confirm handles POST /events/:event_id/reservations/:reservation_id/confirm.
// Only the event owner may call it.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	out, err := h.Svc.ConfirmReservation(c.Request().Context(),
		c.Param("event_id"), c.Param("reservation_id"), getUserID(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListPending handles GET /events/:event_id/reservations/pending (owner only).
func (h *ReservationHandler) ListPending(c echo.Context) error {
	items, err := h.Svc.ListPending(c.Request().Context(), c.Param("event_id"), getUserID(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListConfirmed handles GET /events/:event_id/reservations/confirmed (owner only).
func (h *ReservationHandler) ListConfirmed(c echo.Context) error {
	items, err := h.Svc.ListConfirmed(c.Request().Context(), c.Param("event_id"), getUserID(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListForEvent handles GET /events/:event_id/reservations.
func (h *ReservationHandler) ListForEvent(c echo.Context) error {
	items, err := h.Svc.ListForEvent(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListForParticipant handles GET /participants/:participant_id/reservations.
func (h *ReservationHandler) ListForParticipant(c echo.Context) error {
	items, err := h.Svc.ListForParticipant(c.Request().Context(), c.Param("participant_id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Occupancy handles GET /events/:event_id/occupancy.
func (h *ReservationHandler) Occupancy(c echo.Context) error {
	occ, err := h.Svc.Occupancy(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, occ)
}
