package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/middleware"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/service"
)

// requestTimeout bounds every store round trip made by a handler.
const requestTimeout = 5 * time.Second

// API bundles the repositories and services behind the operational
// endpoints.
type API struct {
	Repos     repository.Repositories
	Dashboard *service.Dashboard
	Tickets   *service.TicketService
	Reports   *service.Reports
	Seeder    *service.Seeder
	Log       *zap.Logger
}

// NewAPI constructs an API and panics if a dependency is missing.
func NewAPI(repos repository.Repositories, dash *service.Dashboard, tickets *service.TicketService, reports *service.Reports, seeder *service.Seeder, log *zap.Logger) *API {
	if dash == nil || tickets == nil || reports == nil || seeder == nil || log == nil {
		panic("nil dependency passed to NewAPI")
	}
	return &API{Repos: repos, Dashboard: dash, Tickets: tickets, Reports: reports, Seeder: seeder, Log: log}
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads the :id path parameter.
func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

// fieldErrors maps a JSON field name to what is wrong with it.
type fieldErrors map[string]string

const msgRequired = "This field is required."

func (f fieldErrors) required(field string, present bool) {
	if !present {
		f[field] = msgRequired
	}
}

func (f fieldErrors) check(field string, ok bool, msg string) {
	if !ok {
		if _, dup := f[field]; !dup {
			f[field] = msg
		}
	}
}

// validate checks the merged entity against the `validate` tags on the
// model structs.  Errors are keyed by JSON field name.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// entity runs the tag rules on v and records the first failure per field.
func (f fieldErrors) entity(v any) {
	var verrs validator.ValidationErrors
	if !errors.As(validate.Struct(v), &verrs) {
		return
	}
	for _, fe := range verrs {
		f.check(fe.Field(), false, ruleMessage(fe))
	}
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field may not be blank."
	case "oneof":
		return "Must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "gte":
		if fe.Param() == "0" {
			return "Must not be negative."
		}
		return "Must be at least " + fe.Param() + "."
	case "gt":
		if fe.Param() == "0" {
			return "Must be greater than zero."
		}
		return "Must be greater than " + fe.Param() + "."
	case "lte":
		return "Must be at most " + fe.Param() + "."
	case "ltefield":
		return "Must not exceed " + strings.ToLower(fe.Param()) + "."
	}
	return "Invalid value."
}

func validationFailed(c echo.Context, errs fieldErrors) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": errs})
}

// storeError maps repository and service errors to responses.  Anything
// unrecognised is logged with the request id and reported as a generic
// 500.
func storeError(c echo.Context, log *zap.Logger, err error, what string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": what + " not found"})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": what + " already exists"})
	case errors.Is(err, repository.ErrInvalidReference):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "referenced record does not exist"})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	log.Error("store failure",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
