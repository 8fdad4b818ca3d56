package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stadium-ops/internal/service"
)

// DashboardData handles GET /dashboard-data.  Every call advances the
// simulated live state before the rollup is computed, so this read
// endpoint writes to the store.
func (a *API) DashboardData(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	snap, err := a.Dashboard.Snapshot(ctx)
	if err != nil {
		return storeError(c, a.Log, err, "dashboard")
	}
	return c.JSON(http.StatusOK, snap)
}

type validateReq struct {
	Code string `json:"code"`
}

type validateResp struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ValidateTicket handles POST /validate-ticket.
func (a *API) ValidateTicket(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	t, err := a.Tickets.Validate(ctx, strings.TrimSpace(req.Code))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, validateResp{Valid: true, Details: t})
	case errors.Is(err, service.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, validateResp{Reason: err.Error()})
	case errors.Is(err, service.ErrFraudRejected):
		return c.JSON(http.StatusForbidden, validateResp{Reason: err.Error()})
	case errors.Is(err, service.ErrAlreadyValidated):
		return c.JSON(http.StatusBadRequest, validateResp{Reason: err.Error()})
	}
	return storeError(c, a.Log, err, "ticket")
}

// ListZones handles GET /crowd: the zone list with a crowd prediction
// attached to each row.
func (a *API) ListZones(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	views, err := a.Reports.ZonesWithPredictions(ctx)
	if err != nil {
		return storeError(c, a.Log, err, "crowd zone")
	}
	return c.JSON(http.StatusOK, views)
}

// ListMeters handles GET /energy with the chart-friendly shape.
func (a *API) ListMeters(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	rep, err := a.Reports.Energy(ctx)
	if err != nil {
		return storeError(c, a.Log, err, "energy meter")
	}
	return c.JSON(http.StatusOK, rep)
}

// MeterForecast handles GET /energy/:id/forecast.
func (a *API) MeterForecast(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	fc, err := a.Reports.MeterForecast(ctx, id)
	if err != nil {
		return storeError(c, a.Log, err, "energy meter")
	}
	return c.JSON(http.StatusOK, echo.Map{"forecast": fc})
}

// GenerateMock handles POST /generate-mock.
func (a *API) GenerateMock(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := a.Seeder.Seed(ctx); err != nil {
		return storeError(c, a.Log, err, "mock data")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": service.SeedStatus})
}
