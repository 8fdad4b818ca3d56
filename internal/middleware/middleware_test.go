package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/stadium-ops/internal/config"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/utils"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/test", func(c echo.Context) error { return c.String(http.StatusOK, GetRequestID(c)) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	header := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, header)
	assert.Equal(t, header, rec.Body.String())
}

func TestRequestID_UsesExisting(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/test", func(c echo.Context) error { return c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "existing-request-id-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "existing-request-id-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "existing-request-id-123", rec.Body.String())
}

func TestLoggerLevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestID(), Logger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/missing", func(c echo.Context) error { return echo.ErrNotFound })
	e.GET("/boom", func(c echo.Context) error { return c.NoContent(http.StatusInternalServerError) })

	for _, p := range []string{"/ok", "/missing", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func sessionServer(t *testing.T, repos repository.Repositories) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(Session("secret", "sessionid", repos.Sessions))
	g := e.Group("", RequireAuth())
	g.GET("/me", func(c echo.Context) error {
		id, _ := AuthenticatedUserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": id})
	})
	return e
}

func TestSessionAndRequireAuth(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories()
	e := sessionServer(t, repos)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := utils.NewSessionToken("secret", 7, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repos.Sessions.Store(ctx, 7, tok.Hash, tok.Exp))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: tok.Token})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())

	require.NoError(t, repos.Sessions.Revoke(ctx, tok.Hash))
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: tok.Token})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionIgnoresForgedCookie(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	e := sessionServer(t, repos)

	tok, err := utils.NewSessionToken("other-secret", 7, time.Hour)
	require.NoError(t, err)
	require.NoError(t, repos.Sessions.Store(context.Background(), 7, tok.Hash, tok.Exp))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: tok.Token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
	e := echo.New()
	e.Use(
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, zap.NewNop()),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, zap.NewNop()),
	)
	e.GET("/events", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheGroupAndKeys(t *testing.T) {
	assert.Equal(t, "events", cacheGroup("/events/3/"))
	assert.Equal(t, "energy", cacheGroup("/energy/2/forecast"))
	assert.Equal(t, "root", cacheGroup("/"))

	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	c1 := e.NewContext(httptest.NewRequest(http.MethodGet, "/events?page=1", nil), httptest.NewRecorder())
	c2 := e.NewContext(httptest.NewRequest(http.MethodGet, "/events?page=2", nil), httptest.NewRecorder())
	k1, k2 := cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c2)
	assert.NotEqual(t, k1, k2)
	assert.Contains(t, k1, "cache:events:")
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{1, 2})
	assert.False(t, ok)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/validate-ticket", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/validate-ticket")

	key := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c)
	assert.Equal(t, "rl:ip:10.0.0.9:route:POST /validate-ticket", key)

	c.Set(UserIDKey, "5")
	key = buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c)
	assert.Equal(t, "rl:user:5", key)
}
