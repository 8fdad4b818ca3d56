package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreFraud(t *testing.T) {
	h := NewHeuristic(&SequenceSource{Floats: []float64{0.5}})

	assert.Equal(t, 0.9, h.ScoreFraud("TICKET-TEST-1"))
	assert.Equal(t, 0.7, h.ScoreFraud("AB1"))
	assert.Equal(t, 0.1, h.ScoreFraud("TICKET-1"))
}

func TestScoreFraudRange(t *testing.T) {
	h := NewHeuristic(NewSeededSource(7))
	for i := 0; i < 500; i++ {
		s := h.ScoreFraud("TICKET-12345")
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 0.2)
	}
}

func TestPredictCrowd(t *testing.T) {
	tests := []struct {
		name      string
		trendIdx  int
		capacity  int
		current   int
		wantCount int
		wantRisk  string
		wantHint  string
	}{
		{"low", 1, 100, 50, 50, RiskLow, "Monitor"},
		{"medium", 2, 100, 65, 75, RiskMedium, "Monitor"},
		{"high", 4, 100, 60, 110, RiskHigh, "Open Gate B"},
		{"floored at zero", 0, 100, 3, 0, RiskLow, "Monitor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeuristic(&SequenceSource{Ints: []int{tt.trendIdx}})
			got := h.PredictCrowd(tt.capacity, tt.current)
			assert.Equal(t, tt.wantCount, got.PredictedCount)
			assert.Equal(t, tt.wantRisk, got.RiskLevel)
			assert.Equal(t, tt.wantHint, got.Suggestion)
		})
	}
}

func TestForecastEnergy(t *testing.T) {
	h := NewHeuristic(&SequenceSource{Floats: []float64{0, 0.5, 0.999999}})
	got := h.ForecastEnergy(100)
	assert.Len(t, got, ForecastPoints)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 90.0)
		assert.LessOrEqual(t, v, 110.0)
	}
	assert.InDelta(t, 90.0, got[0], 1e-9)
	assert.InDelta(t, 100.0, got[1], 1e-9)
}

func TestAnalyzeSentiment(t *testing.T) {
	h := NewHeuristic(NewSeededSource(1))
	assert.Equal(t, Positive, h.AnalyzeSentiment("Great atmosphere and fast entry"))
	assert.Equal(t, Negative, h.AnalyzeSentiment("slow queues, crowded and dirty"))
	assert.Equal(t, Neutral, h.AnalyzeSentiment("good seats but expensive"))
	assert.Equal(t, Neutral, h.AnalyzeSentiment(""))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.3, Round(12.34, 1))
	assert.Equal(t, 3.0, Round(2.96, 1))
	assert.Equal(t, 89.99, Round(89.99, 2))
}
