package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/config"
	"github.com/iliyamo/stadium-ops/internal/middleware"
	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/utils"
)

// CSRFCookieName is the cookie the CSRF middleware writes its token to.
const CSRFCookieName = "csrftoken"

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, u repository.UserRepository, s repository.SessionRepository, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type userPart struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
type authResp struct {
	Success bool     `json:"success"`
	User    userPart `json:"user"`
}

func failure(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": msg})
}

// Register creates the account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return failure(c, "All fields are required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return h.internal(c, "hash password failed", err)
	}
	u := &model.User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return failure(c, "Username already exists")
		}
		return h.internal(c, "create user failed", err)
	}
	if err := h.openSession(c, u.ID); err != nil {
		return h.internal(c, "open session failed", err)
	}
	return c.JSON(http.StatusOK, authResp{Success: true, User: userPart{Username: u.Username, Email: u.Email}})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failure(c, "Invalid credentials")
		}
		return h.internal(c, "query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return failure(c, "Invalid credentials")
	}
	if err := h.openSession(c, u.ID); err != nil {
		return h.internal(c, "open session failed", err)
	}
	return c.JSON(http.StatusOK, authResp{Success: true, User: userPart{Username: u.Username, Email: u.Email}})
}

// Logout revokes the current session (if any) and clears both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	if hash := middleware.SessionHash(c); hash != "" {
		ctx, cancel := withTimeout(c)
		defer cancel()
		if err := h.Sessions.Revoke(ctx, hash); err != nil {
			return h.internal(c, "logout failed", err)
		}
	}
	h.expireCookie(c, h.Cfg.SessionCookieName, true)
	h.expireCookie(c, CSRFCookieName, false)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// User reports whether the caller holds a live session.
func (h *AuthHandler) User(c echo.Context) error {
	uid, ok := middleware.AuthenticatedUserID(c)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{"is_authenticated": false})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"is_authenticated": false})
		}
		return h.internal(c, "load user failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"is_authenticated": true,
		"user":             userPart{Username: u.Username, Email: u.Email},
	})
}

// CSRF returns the token the CSRF middleware placed in the context.  The
// same middleware has already written it to the csrftoken cookie.
func (h *AuthHandler) CSRF(c echo.Context) error {
	tok, _ := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string)
	return c.JSON(http.StatusOK, echo.Map{"csrfToken": tok})
}

func (h *AuthHandler) openSession(c echo.Context, userID uint64) error {
	st, err := utils.NewSessionToken(h.Cfg.JWTSecret, userID, h.Cfg.SessionTTL)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Sessions.Store(ctx, userID, st.Hash, st.Exp); err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     h.Cfg.SessionCookieName,
		Value:    st.Token,
		Path:     "/",
		Expires:  st.Exp,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *AuthHandler) expireCookie(c echo.Context, name string, httpOnly bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   h.Cfg.CookieSecure,
	})
}

func (h *AuthHandler) internal(c echo.Context, msg string, err error) error {
	h.Log.Error(msg, zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}
