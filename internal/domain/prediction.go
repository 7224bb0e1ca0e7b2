package domain

import (
	"math"
	"time"
)

// Prediction is the categorized result of one pipeline run.
type Prediction struct {
	ID            string      `json:"id"`
	ObservationID string      `json:"observation_id,omitempty"`
	RainfallMM    float64     `json:"rainfall_mm"`
	Category      Category    `json:"category"`
	Tone          Tone        `json:"tone"`
	Observation   Observation `json:"observation"`
	PredictedAt   time.Time   `json:"predicted_at"`
}

// ClampRainfall floors a model output at zero; rainfall cannot be negative.
func ClampRainfall(v float64) float64 {
	return math.Max(0, v)
}

// NewPrediction categorizes a clamped rainfall value and stamps it with the
// current time.
func NewPrediction(id string, mm float64, obs Observation) Prediction {
	mm = ClampRainfall(mm)
	cat := Categorize(mm)
	return Prediction{
		ID:          id,
		RainfallMM:  mm,
		Category:    cat,
		Tone:        cat.Tone(),
		Observation: obs,
		PredictedAt: clock.Now().UTC(),
	}
}
