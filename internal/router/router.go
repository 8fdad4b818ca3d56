package router // router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/config"
	"github.com/iliyamo/stadium-ops/internal/handler"
	"github.com/iliyamo/stadium-ops/internal/middleware"
	"github.com/iliyamo/stadium-ops/internal/repository"
)

// Deps is everything New needs to build the HTTP surface.  Redis may be
// nil, in which case rate limiting and caching pass requests through.
type Deps struct {
	Cfg       config.Config
	API       *handler.API
	Auth      *handler.AuthHandler
	Sessions  repository.SessionRepository
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Log       *zap.Logger
}

// New returns an Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// /events/ and /events are the same resource.
	e.Pre(echomw.RemoveTrailingSlash())

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Cfg.AllowedOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, csrfHeader},
		AllowCredentials: true,
	}))
	e.Use(csrf(d.Cfg.SessionCookieName))
	e.Use(middleware.Session(d.Cfg.JWTSecret, d.Cfg.SessionCookieName, d.Sessions))

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	RegisterOps(e, d)
	return e
}

// RegisterRoutes registers routes that sit outside both the auth and the
// operational surface.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

const csrfHeader = "X-CSRFToken"

// csrf enforces the double-submit token only for callers that carry a
// session cookie; anonymous callers have nothing to forge.  /auth/csrf is
// never skipped so it can always hand out a token.
func csrf(sessionCookie string) echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "header:" + csrfHeader,
		CookieName:     handler.CSRFCookieName,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			if c.Path() == "/auth/csrf" {
				return false
			}
			ck, err := c.Cookie(sessionCookie)
			return err != nil || ck.Value == ""
		},
	})
}
