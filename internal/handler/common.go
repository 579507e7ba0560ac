// Package handler exposes the HTTP surface of the attendance service.
// Handlers parse and validate the request, call a service and translate the
// outcome into a status code; they never touch storage directly.
package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-attendance/internal/middleware"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator for request bodies.
func NewValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks the struct tags of i.
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

// getUserID returns the authenticated caller or "" when anonymous.
func getUserID(c echo.Context) string {
	return middleware.UserID(c)
}

// bindBody decodes and validates the JSON body into dst.  An empty body is
// allowed; the struct's zero value then goes through validation.
func bindBody(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		return badRequest(validationMessage(err))
	}
	return nil
}
