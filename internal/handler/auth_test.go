package handler

import (
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
	"github.com/iliyamo/stadium-ops/internal/middleware"
	"github.com/iliyamo/stadium-ops/internal/repository"
)

func newAuthServer(t *testing.T) (*echo.Echo, config.Config) {
	t.Helper()
	cfg := config.Config{
		JWTSecret:         "test-secret",
		SessionTTL:        time.Hour,
		SessionCookieName: "sessionid",
		BcryptCost:        bcrypt.MinCost,
	}
	repos := repository.NewMemoryRepositories()
	h := NewAuthHandler(cfg, repos.Users, repos.Sessions, zap.NewNop())

	e := echo.New()
	e.Use(middleware.Session(cfg.JWTSecret, cfg.SessionCookieName, repos.Sessions))
	g := e.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/user", h.User)
	return e, cfg
}

func authCall(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestRegisterLoginLogout(t *testing.T) {
	e, cfg := newAuthServer(t)

	rec := authCall(e, http.MethodPost, "/auth/register", `{"username":"ops","email":"ops@venue.test","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"success": true, "user": map[string]any{"username": "ops", "email": "ops@venue.test"}}, decode(t, rec))
	session := cookieNamed(rec, cfg.SessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	rec = authCall(e, http.MethodGet, "/auth/user", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, true, got["is_authenticated"])
	assert.Equal(t, "ops", got["user"].(map[string]any)["username"])

	rec = authCall(e, http.MethodPost, "/auth/logout", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieNamed(rec, cfg.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.NotNil(t, cookieNamed(rec, CSRFCookieName))

	// the old cookie no longer opens a session
	rec = authCall(e, http.MethodGet, "/auth/user", "", session)
	assert.Equal(t, map[string]any{"is_authenticated": false}, decode(t, rec))

	rec = authCall(e, http.MethodPost, "/auth/login", `{"username":"ops","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, cookieNamed(rec, cfg.SessionCookieName))
}

func TestRegisterRejects(t *testing.T) {
	e, _ := newAuthServer(t)

	rec := authCall(e, http.MethodPost, "/auth/register", `{"username":"ops","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", decode(t, rec)["error"])

	body := `{"username":"ops","email":"a@b.c","password":"x"}`
	require.Equal(t, http.StatusOK, authCall(e, http.MethodPost, "/auth/register", body).Code)
	rec = authCall(e, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", decode(t, rec)["error"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	e, _ := newAuthServer(t)
	require.Equal(t, http.StatusOK,
		authCall(e, http.MethodPost, "/auth/register", `{"username":"ops","email":"a@b.c","password":"right"}`).Code)

	for _, body := range []string{
		`{"username":"ops","password":"wrong"}`,
		`{"username":"ghost","password":"right"}`,
	} {
		rec := authCall(e, http.MethodPost, "/auth/login", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]any{"success": false, "error": "Invalid credentials"}, decode(t, rec))
		assert.Nil(t, cookieNamed(rec, "sessionid"))
	}
}

func TestUserAnonymous(t *testing.T) {
	e, _ := newAuthServer(t)
	rec := authCall(e, http.MethodGet, "/auth/user", "", &http.Cookie{Name: "sessionid", Value: "garbage"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"is_authenticated": false}, decode(t, rec))
}
