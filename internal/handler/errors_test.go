package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/service"
)

func TestWriteError(t *testing.T) {
	Convey("Service error kinds map to distinct statuses", t, func() {
		e := echo.New()
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{&service.Error{Kind: service.ErrUnauthorized, Msg: "authentication required"}, http.StatusUnauthorized, "unauthorized"},
			{&service.Error{Kind: service.ErrForbidden, Msg: "no"}, http.StatusForbidden, "forbidden"},
			{&service.Error{Kind: service.ErrNotFound, Msg: "event not found"}, http.StatusNotFound, "not_found"},
			{&service.Error{Kind: service.ErrValidation, Msg: "bad"}, http.StatusBadRequest, "validation_error"},
			{&service.Error{Kind: service.ErrCapacityExceeded, Msg: "event is at capacity"}, http.StatusBadRequest, "capacity_exceeded"},
			{&service.Error{Kind: service.ErrAttendanceRequired, Msg: "attend first"}, http.StatusBadRequest, "attendance_required"},
			{&service.Error{Kind: service.ErrUnavailable, Msg: "down"}, http.StatusServiceUnavailable, "unavailable"},
			{badRequest("invalid request body"), http.StatusBadRequest, "validation_error"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			So(writeError(c, zap.NewNop(), tc.err), ShouldBeNil)
			So(rec.Code, ShouldEqual, tc.status)
			So(rec.Body.String(), ShouldContainSubstring, `"error":"`+tc.code+`"`)
		}
	})

	Convey("Internal errors do not leak their text", t, func() {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		_ = writeError(c, zap.NewNop(), errors.New("dial tcp 10.0.0.5:3306"))
		So(rec.Body.String(), ShouldNotContainSubstring, "10.0.0.5")
	})
}

func TestValidationMessage(t *testing.T) {
	Convey("Validator failures read as sentences", t, func() {
		v := NewValidator()
		err := v.Validate(&reservationRequest{Status: "perhaps"})
		So(err, ShouldNotBeNil)
		So(validationMessage(err), ShouldEqual, "status must be one of going, maybe, not_going")

		err = v.Validate(&ratingRequest{})
		So(validationMessage(err), ShouldEqual, "value is required")
	})
}
