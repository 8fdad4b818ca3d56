package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-ops/internal/handler"
)

// RegisterAuth registers the session endpoints under /auth.  Register and
// login sit behind the rate limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/logout", a.Logout)
	g.GET("/user", a.User)
	g.GET("/csrf", a.CSRF)
}
