package service

import (
	"context"
	"fmt"
	"math"

	"github.com/iliyamo/stadium-ops/internal/model"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/scoring"
)

// ZoneView is a crowd zone with its (unsaved) prediction attached.
type ZoneView struct {
	*model.CrowdZone
	AIPrediction scoring.CrowdPrediction `json:"ai_prediction"`
}

// EnergyPoint is one point of the usage chart.
type EnergyPoint struct {
	Time       string  `json:"time"`
	Usage      float64 `json:"usage"`
	Prediction float64 `json:"prediction"`
}

// MeterView is the frontend shape of a meter row.
type MeterView struct {
	ID             uint64  `json:"id"`
	Zone           string  `json:"zone"`
	Type           string  `json:"type"`
	CurrentReading float64 `json:"current_reading"`
	Status         string  `json:"status"`
}

// EnergyReport is the payload of the meter listing.
type EnergyReport struct {
	Summary EnergyStats   `json:"summary"`
	History []EnergyPoint `json:"history"`
	Meters  []MeterView   `json:"meters"`
}

// Reports builds the enriched list views for crowd zones and meters.
type Reports struct {
	Zones    repository.CrowdZoneRepository
	Meters   repository.EnergyMeterRepository
	Crowd    scoring.CrowdPredictor
	Forecast scoring.EnergyForecaster
}

// ZonesWithPredictions lists zones and attaches a crowd prediction to each.
func (r *Reports) ZonesWithPredictions(ctx context.Context) ([]ZoneView, error) {
	zones, err := r.Zones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	out := make([]ZoneView, 0, len(zones))
	for _, z := range zones {
		out = append(out, ZoneView{CrowdZone: z, AIPrediction: r.Crowd.PredictCrowd(z.Capacity, z.CurrentCount)})
	}
	return out, nil
}

// historyShape holds the chart's fixed slots: label, usage multiplier and
// floor, prediction multiplier.
var historyShape = []struct {
	label      string
	usageMul   float64
	usageFloor float64
	predMul    float64
}{
	{"09:00", 0.4, 50, 0.45},
	{"11:00", 0.6, 100, 0.65},
	{"13:00", 0.9, 200, 0.85},
	{"15:00", 1.0, 0, 1.1},
	{"17:00", 0.8, 150, 0.75},
	{"19:00", 1.2, 300, 1.3},
}

// EnergyHistory derives the six chart points from the current total.
func EnergyHistory(total float64) []EnergyPoint {
	out := make([]EnergyPoint, 0, len(historyShape))
	for _, h := range historyShape {
		usage := total * h.usageMul
		if h.usageFloor > 0 {
			usage = math.Max(h.usageFloor, usage)
		}
		out = append(out, EnergyPoint{Time: h.label, Usage: usage, Prediction: total * h.predMul})
	}
	return out
}

// Energy builds the meter listing payload.
func (r *Reports) Energy(ctx context.Context) (*EnergyReport, error) {
	meters, err := r.Meters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	total := 0.0
	views := make([]MeterView, 0, len(meters))
	for _, m := range meters {
		total += m.CurrentUsageKW
		views = append(views, MeterView{
			ID:             m.ID,
			Zone:           m.Location,
			Type:           m.Name,
			CurrentReading: m.CurrentUsageKW,
			Status:         m.Status,
		})
	}
	return &EnergyReport{
		Summary: EnergyStats{TotalUsage: scoring.Round(total, 1)},
		History: EnergyHistory(total),
		Meters:  views,
	}, nil
}

// MeterForecast returns the projected readings of one meter.
func (r *Reports) MeterForecast(ctx context.Context, id uint64) ([]float64, error) {
	m, err := r.Meters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Forecast.ForecastEnergy(m.CurrentUsageKW), nil
}
