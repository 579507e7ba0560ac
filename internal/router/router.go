// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/metrics"
	"github.com/iliyamo/event-attendance/internal/middleware"
)

// summaryCacheTTL bounds how stale a cached host rating summary may be.
const summaryCacheTTL = 15 * time.Second

// Deps carries everything RegisterRoutes needs.  Redis, Metrics and Ping
// may be nil.
type Deps struct {
	Config       config.Config
	Log          *zap.Logger
	Redis        *redis.Client
	Metrics      *metrics.Manager
	Ping         func(ctx context.Context) error
	Reservations *handler.ReservationHandler
	Feedback     *handler.FeedbackHandler
}

// RegisterRoutes installs the global middleware and every route.  Mutating
// routes require a bearer token and are rate limited; reads are public.
func RegisterRoutes(e *echo.Echo, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(log.Named("http")))
	if d.Metrics != nil {
		e.Use(middleware.HTTPMetrics(d.Metrics))
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.GET("/healthz", handler.Health(d.Ping))

	RegisterPublic(e, d)
	RegisterAuthenticated(e, d)
}

// RegisterPublic registers the read-only endpoints that need no token.
func RegisterPublic(e *echo.Echo, d Deps) {
	r, f := d.Reservations, d.Feedback
	e.GET("/events/:event_id/reservations", r.ListForEvent)
	e.GET("/events/:event_id/occupancy", r.Occupancy)
	e.GET("/participants/:participant_id/reservations", r.ListForParticipant)
	e.GET("/events/:event_id/ratings", f.EventRatings)
	e.GET("/hosts/:host_id/ratings", f.HostSummary,
		middleware.NewRedisCache(d.Config.Cache, d.Redis, summaryCacheTTL, d.Log))
}

// RegisterAuthenticated registers endpoints acting on behalf of the caller.
func RegisterAuthenticated(e *echo.Echo, d Deps) {
	r, f := d.Reservations, d.Feedback
	// Attached per route: a prefix-less group would also wrap echo's
	// catch-all not-found routes.
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.Config.JWTSecret),
		middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Log),
	}

	e.POST("/events/:event_id/reservations", r.Request, auth...)
	e.DELETE("/events/:event_id/reservations/me", r.Cancel, auth...)
	e.POST("/events/:event_id/reservations/:reservation_id/confirm", r.Confirm, auth...)
	e.GET("/events/:event_id/reservations/pending", r.ListPending, auth...)
	e.GET("/events/:event_id/reservations/confirmed", r.ListConfirmed, auth...)

	e.POST("/events/:event_id/ratings", f.SubmitRating, auth...)
	e.POST("/events/:event_id/reports", f.ReportEvent, auth...)
	e.POST("/users/:user_id/reports", f.ReportUser, auth...)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "route not found"})
	})
}
