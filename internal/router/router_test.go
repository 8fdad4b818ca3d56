package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/stadium-ops/internal/config"
	"github.com/iliyamo/stadium-ops/internal/handler"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/scoring"
	"github.com/iliyamo/stadium-ops/internal/service"
)

func newTestEcho(t *testing.T, requireAuth bool) *echo.Echo {
	t.Helper()
	cfg := config.Config{
		JWTSecret:         "router-secret",
		SessionTTL:        time.Hour,
		SessionCookieName: "sessionid",
		BcryptCost:        bcrypt.MinCost,
		FrontendURL:       "http://localhost:5173",
		RequireAuth:       requireAuth,
		SystemHealthMin:   95,
		SystemHealthMax:   100,
	}
	log := zap.NewNop()
	repos := repository.NewMemoryRepositories()
	rnd := scoring.NewSeededSource(1)
	ai := scoring.NewHeuristic(rnd)
	tickets := service.NewTicketService(repos.Tickets, ai, service.NopPublisher{}, log)
	dash := service.NewDashboard(repos, service.NewSimulator(repos.Zones, repos.Meters, rnd),
		service.RandomHealth{Min: cfg.SystemHealthMin, Max: cfg.SystemHealthMax, Rand: rnd})
	reports := &service.Reports{Zones: repos.Zones, Meters: repos.Meters, Crowd: ai, Forecast: ai}
	seeder := service.NewSeeder(repos, tickets, service.NopPublisher{}, log)

	return New(Deps{
		Cfg:      cfg,
		API:      handler.NewAPI(repos, dash, tickets, reports, seeder, log),
		Auth:     handler.NewAuthHandler(cfg, repos.Users, repos.Sessions, log),
		Sessions: repos.Sessions,
		Log:      log,
	})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	e := newTestEcho(t, false)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestTrailingSlashAccepted(t *testing.T) {
	e := newTestEcho(t, false)
	for _, p := range []string{"/events", "/events/", "/logs/", "/crowd/"} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
	assert.Equal(t, http.StatusNotFound, serve(e, httptest.NewRequest(http.MethodGet, "/nowhere", nil)).Code)
}

func TestCORSPreflightAllowsFrontend(t *testing.T) {
	e := newTestEcho(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/validate-ticket", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := serve(e, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}

func TestCSRFOnlyForSessionCookies(t *testing.T) {
	e := newTestEcho(t, false)

	// anonymous writes go straight through
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/generate-mock", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// a session cookie without the header is refused
	req := httptest.NewRequest(http.MethodPost, "/generate-mock", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "anything"})
	rec = serve(e, req)
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusForbidden}, rec.Code)

	// fetch a token and echo it back
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/auth/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	token := body["csrfToken"]
	require.NotEmpty(t, token)

	req = httptest.NewRequest(http.MethodPost, "/generate-mock", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "anything"})
	req.AddCookie(&http.Cookie{Name: handler.CSRFCookieName, Value: token})
	req.Header.Set(csrfHeader, token)
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRequireAuthGuardsOps(t *testing.T) {
	e := newTestEcho(t, true)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/dashboard-data", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// auth endpoints stay open
	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"gate","email":"g@venue.test","password":"pw"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sessionid" {
			session = ck
		}
	}
	require.NotNil(t, session)

	req = httptest.NewRequest(http.MethodGet, "/dashboard-data", nil)
	req.AddCookie(session)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	assert.Equal(t, http.StatusNotFound, serve(e, httptest.NewRequest(http.MethodGet, "/nowhere", nil)).Code)
}

func TestLogsRejectUpdates(t *testing.T) {
	e := newTestEcho(t, false)
	req := httptest.NewRequest(http.MethodDelete, "/logs/1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(e, req).Code)
}
