package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/service"
)

// FeedbackHandler serves ratings, reports and host rating summaries.
type FeedbackHandler struct {
	Svc *service.FeedbackService
	Log *zap.Logger
}

// NewFeedbackHandler panics when svc is nil.
func NewFeedbackHandler(svc *service.FeedbackService, log *zap.Logger) *FeedbackHandler {
	if svc == nil {
		panic("nil service passed to NewFeedbackHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedbackHandler{Svc: svc, Log: log}
}

type ratingRequest struct {
	Value   *int    `json:"value" validate:"required"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type reportRequest struct {
	Reason  string  `json:"reason" validate:"max=500"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// SubmitRating handles POST /events/:event_id/ratings with body
// {"value": 1..5, "comment": "..."}.  201 on the first rating, 200 when an
// earlier rating was overwritten.
func (h *FeedbackHandler) SubmitRating(c echo.Context) error {
	var body ratingRequest
	if err := bindBody(c, &body); err != nil {
		return writeError(c, h.Log, err)
	}
	r, created, err := h.Svc.SubmitRating(c.Request().Context(), c.Param("event_id"), getUserID(c), *body.Value, body.Comment)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, r)
}

// ReportEvent handles POST /events/:event_id/reports.
func (h *FeedbackHandler) ReportEvent(c echo.Context) error {
	return h.report(c, model.EventTarget(c.Param("event_id")))
}

// ReportUser handles POST /users/:user_id/reports.
func (h *FeedbackHandler) ReportUser(c echo.Context) error {
	return h.report(c, model.UserTarget(c.Param("user_id")))
}

func (h *FeedbackHandler) report(c echo.Context, target model.ReportTarget) error {
	var body reportRequest
	if err := bindBody(c, &body); err != nil {
		return writeError(c, h.Log, err)
	}
	rep, err := h.Svc.SubmitReport(c.Request().Context(), getUserID(c), target, body.Reason, body.Comment)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, rep)
}

// HostSummary handles GET /hosts/:host_id/ratings.
func (h *FeedbackHandler) HostSummary(c echo.Context) error {
	sum, err := h.Svc.HostRatingSummary(c.Request().Context(), c.Param("host_id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// EventRatings handles GET /events/:event_id/ratings.
func (h *FeedbackHandler) EventRatings(c echo.Context) error {
	items, err := h.Svc.ListEventRatings(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
