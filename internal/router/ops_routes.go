package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-ops/internal/middleware"
)

// RegisterOps registers the dashboard, ticket scanning, seeding and CRUD
// endpoints.  With REQUIRE_AUTH set every one of them needs a live
// session.  Middleware is attached per route rather than on the group so
// unknown paths still get 404 instead of 401.
func RegisterOps(e *echo.Echo, d Deps) {
	a := d.API
	var auth []echo.MiddlewareFunc
	if d.Cfg.RequireAuth {
		auth = append(auth, middleware.RequireAuth())
	}
	with := func(extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
		return append(append([]echo.MiddlewareFunc{}, auth...), extra...)
	}
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)

	g := e.Group("")

	g.GET("/dashboard-data", a.DashboardData, auth...)
	g.POST("/validate-ticket", a.ValidateTicket, with(limit)...)
	g.POST("/generate-mock", a.GenerateMock, auth...)

	a.EventResource().Register(g, "/events", with(cache)...)
	a.TicketResource().Register(g, "/tickets", auth...)
	a.ZoneResource().Register(g, "/crowd", auth...)
	a.MeterResource().Register(g, "/energy", auth...)
	g.GET("/energy/:id/forecast", a.MeterForecast, with(cache)...)
	a.MerchandiseResource().Register(g, "/merchandise", with(cache)...)
	a.LogResource().RegisterAppendOnly(g, "/logs", auth...)
}
