package middleware

import "github.com/labstack/echo/v4"

// userIDKey is the context key JWTAuth stores the authenticated subject
// under.
const userIDKey = "user_id"

// UserID returns the authenticated user's id, or "" for anonymous
// requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok {
		return s
	}
	return ""
}

// principal identifies the caller for rate-limit keys; anonymous callers
// share one bucket per strategy.
func principal(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
