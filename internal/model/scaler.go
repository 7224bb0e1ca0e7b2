package model

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// dimensionality an artifact was fit on.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Scaler is a fitted per-feature transform.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
	InverseTransform(x []float64) ([]float64, error)
	NumFeatures() int
}

// FeatureScaler is the input scaler together with the feature order it was fit on.
type FeatureScaler struct {
	Scaler
	FeatureNames []string
}

// StandardScaler standardizes each feature: (x - mean) / scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// NewStandardScaler validates the fitted parameters. A zero scale is treated
// as 1, matching constant features at fit time.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, errors.New("standard scaler: no features")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("standard scaler: %d means but %d scales", len(mean), len(scale))
	}
	s := &StandardScaler{Mean: append([]float64(nil), mean...), Scale: make([]float64, len(scale))}
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s.Scale[i] = v
	}
	return s, nil
}

func (s *StandardScaler) NumFeatures() int { return len(s.Mean) }

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if err := checkDim(x, len(s.Mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

func (s *StandardScaler) InverseTransform(x []float64) ([]float64, error) {
	if err := checkDim(x, len(s.Mean)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.Scale[i] + s.Mean[i]
	}
	return out, nil
}

// MinMaxScaler maps each feature linearly: x*scale + min, where min and scale
// are the fitted offsets (not the observed data range).
type MinMaxScaler struct {
	Min   []float64
	Scale []float64
}

func NewMinMaxScaler(minOffset, scale []float64) (*MinMaxScaler, error) {
	if len(minOffset) == 0 {
		return nil, errors.New("minmax scaler: no features")
	}
	if len(minOffset) != len(scale) {
		return nil, fmt.Errorf("minmax scaler: %d offsets but %d scales", len(minOffset), len(scale))
	}
	for i, v := range scale {
		if v == 0 {
			return nil, fmt.Errorf("minmax scaler: zero scale for feature %d", i)
		}
	}
	return &MinMaxScaler{
		Min:   append([]float64(nil), minOffset...),
		Scale: append([]float64(nil), scale...),
	}, nil
}

func (s *MinMaxScaler) NumFeatures() int { return len(s.Min) }

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if err := checkDim(x, len(s.Min)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.Scale[i] + s.Min[i]
	}
	return out, nil
}

func (s *MinMaxScaler) InverseTransform(x []float64) ([]float64, error) {
	if err := checkDim(x, len(s.Min)); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Min[i]) / s.Scale[i]
	}
	return out, nil
}

// IdentityScaler passes values through unchanged.
type IdentityScaler struct {
	N int
}

func (s IdentityScaler) NumFeatures() int { return s.N }

func (s IdentityScaler) Transform(x []float64) ([]float64, error) {
	if err := checkDim(x, s.N); err != nil {
		return nil, err
	}
	return append([]float64(nil), x...), nil
}

func (s IdentityScaler) InverseTransform(x []float64) ([]float64, error) {
	return s.Transform(x)
}

func checkDim(x []float64, want int) error {
	if len(x) != want {
		return fmt.Errorf("%w: expected %d features, got %d", ErrDimensionMismatch, want, len(x))
	}
	return nil
}
