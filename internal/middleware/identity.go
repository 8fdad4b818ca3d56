package middleware

// identity.go holds helpers shared by the session, rate limit and handler
// code for reading who is calling.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// AuthenticatedUserID returns the user id placed in the context by Session.
func AuthenticatedUserID(c echo.Context) (uint64, bool) {
	s, ok := c.Get(UserIDKey).(string)
	if !ok || s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SessionHash returns the hash of the live session, if any.
func SessionHash(c echo.Context) string {
	s, _ := c.Get(SessionHashKey).(string)
	return s
}

// currentUserID is used in rate limit keys; anonymous callers share "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(UserIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}
