package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/utils"
)

// Context keys set by Session.
const (
	UserIDKey      = "user_id"
	SessionHashKey = "session_hash"
)

// Session reads the session cookie, verifies the signed token and checks
// that the session row is still live.  On success it stores the user id
// (as a decimal string) and the session hash in the context.  A missing or
// invalid cookie leaves the request anonymous; RequireAuth decides whether
// that is acceptable.
func Session(secret, cookieName string, sessions repository.SessionRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(cookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}
			claims, err := utils.ParseSessionToken(secret, ck.Value)
			if err != nil {
				return next(c)
			}
			hash := utils.HashSessionID(claims.SID)
			uid, err := sessions.Validate(c.Request().Context(), hash)
			if err != nil || uid != claims.UserID {
				return next(c)
			}
			c.Set(UserIDKey, strconv.FormatUint(uid, 10))
			c.Set(SessionHashKey, hash)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := AuthenticatedUserID(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication credentials were not provided."})
			}
			return next(c)
		}
	}
}
