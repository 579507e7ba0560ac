package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/service"
)

// errorCodes pairs each service error kind with its HTTP status and the
// machine-readable code placed in the response body.
var errorCodes = []struct {
	kind   error
	status int
	code   string
}{
	{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrValidation, http.StatusBadRequest, "validation_error"},
	{service.ErrCapacityExceeded, http.StatusBadRequest, "capacity_exceeded"},
	{service.ErrAttendanceRequired, http.StatusBadRequest, "attendance_required"},
	{service.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// requestError is a failure detected by the handler itself, before any
// service is called.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// writeError renders err as {"error": code, "message": msg}.  Unclassified
// errors become a 500 without leaking their text.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var re *requestError
	if errors.As(err, &re) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": re.msg})
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.kind) {
			return c.JSON(ec.status, echo.Map{"error": ec.code, "message": err.Error()})
		}
	}
	log.Error("unhandled error", zap.String("route", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error", "message": "internal server error"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
