package domain

import (
	"fmt"
	"math"
)

// Feature names as recorded by the fitted input scaler.
const (
	FeatureCloudLowType      = "CLOUD_LOW_TYPE_CL"
	FeatureCloudLowMedAmount = "CLOUD_LOW_MED_AMT_OKTAS"
	FeatureCloudMedType      = "CLOUD_MED_TYPE_CM"
	FeatureCloudHighType     = "CLOUD_HIGH_TYPE_CH"
	FeatureCloudCover        = "CLOUD_COVER_OKTAS_M"
	FeatureLandCondition     = "LAND_COND"
	FeaturePresentWeather    = "PRESENT_WEATHER_WW"
	FeatureDewPoint          = "TEMP_DEWPOINT_C_TDTDTD"
	FeatureDryBulb           = "TEMP_DRYBULB_C_TTTTTT"
	FeatureWetBulb           = "TEMP_WETBULB_C"
	FeatureWindSpeed         = "WIND_SPEED_FF"
	FeatureRelativeHumidity  = "RELATIVE_HUMIDITY_PC"
	FeaturePressureQFF       = "PRESSURE_QFF_MB_DERIVED"
	FeaturePressureQFE       = "PRESSURE_QFE_MB_DERIVED"
)

// LandCondition is the state of the ground at the observation site.
type LandCondition int

const (
	LandDry         LandCondition = 0
	LandWet         LandCondition = 1
	LandWaterlogged LandCondition = 2
)

func (c LandCondition) String() string {
	switch c {
	case LandDry:
		return "Dry"
	case LandWet:
		return "Wet"
	case LandWaterlogged:
		return "Waterlogged"
	default:
		return fmt.Sprintf("LandCondition(%d)", int(c))
	}
}

// Observation is a single ME 48 synoptic observation.
type Observation struct {
	CloudLowType      int           `json:"CLOUD_LOW_TYPE_CL"`
	CloudLowMedAmount int           `json:"CLOUD_LOW_MED_AMT_OKTAS"`
	CloudMedType      int           `json:"CLOUD_MED_TYPE_CM"`
	CloudHighType     int           `json:"CLOUD_HIGH_TYPE_CH"`
	CloudCover        int           `json:"CLOUD_COVER_OKTAS_M"`
	LandCondition     LandCondition `json:"LAND_COND"`
	PresentWeather    int           `json:"PRESENT_WEATHER_WW"`
	DewPoint          float64       `json:"TEMP_DEWPOINT_C_TDTDTD"`
	DryBulb           float64       `json:"TEMP_DRYBULB_C_TTTTTT"`
	WetBulb           float64       `json:"TEMP_WETBULB_C"`
	WindSpeed         float64       `json:"WIND_SPEED_FF"`
	RelativeHumidity  int           `json:"RELATIVE_HUMIDITY_PC"`
	PressureQFF       float64       `json:"PRESSURE_QFF_MB_DERIVED"`
	PressureQFE       float64       `json:"PRESSURE_QFE_MB_DERIVED"`
}

// FeatureSet maps feature names to raw values.
type FeatureSet map[string]float64

// DefaultObservation returns the values the input form starts with.
func DefaultObservation() Observation {
	var obs Observation
	for _, spec := range featureSpecs {
		spec.set(&obs, spec.Default)
	}
	return obs
}

// Features returns the observation keyed by feature name.
func (o Observation) Features() FeatureSet {
	fs := make(FeatureSet, len(featureSpecs))
	for _, spec := range featureSpecs {
		fs[spec.Name] = spec.get(&o)
	}
	return fs
}

// ObservationFromFeatures builds an Observation from named values. Every
// known feature must be present; unknown names and fractional or oversized
// values for integer codes are rejected. Ranges are not checked here, see Validate.
func ObservationFromFeatures(fs FeatureSet) (Observation, error) {
	for name := range fs {
		if _, ok := specIndex[name]; !ok {
			return Observation{}, &ValidationError{Field: name, Reason: "unknown feature"}
		}
	}

	var obs Observation
	for _, spec := range featureSpecs {
		v, ok := fs[spec.Name]
		if !ok {
			return Observation{}, &MissingFeatureError{Name: spec.Name}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Observation{}, &ValidationError{Field: spec.Name, Reason: "not a finite number"}
		}
		if spec.Integer && v != math.Trunc(v) {
			return Observation{}, &ValidationError{Field: spec.Name, Reason: fmt.Sprintf("must be a whole number, got %g", v)}
		}
		if spec.Integer && (v > math.MaxInt32 || v < math.MinInt32) {
			return Observation{}, &ValidationError{Field: spec.Name, Reason: fmt.Sprintf("%g is not a representable code", v)}
		}
		spec.set(&obs, v)
	}
	return obs, nil
}

// Validate checks every field against its accepted range.
func (o Observation) Validate() error {
	for _, spec := range featureSpecs {
		v := spec.get(&o)
		if v < spec.Min || v > spec.Max {
			return &ValidationError{
				Field:  spec.Name,
				Reason: fmt.Sprintf("%g outside range %g–%g", v, spec.Min, spec.Max),
			}
		}
	}
	return nil
}
