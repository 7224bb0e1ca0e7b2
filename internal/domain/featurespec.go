package domain

// Input groups, mirroring the two panels of the observation form.
const (
	GroupCloudWeather = "cloud_weather"
	GroupAtmosphere   = "atmosphere"
)

// FeatureSpec describes one model input: its name, the accepted range the
// presenting layer enforces, and the form default.
type FeatureSpec struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit,omitempty"`
	Help    string  `json:"help,omitempty"`
	Group   string  `json:"group"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
	Integer bool    `json:"integer"`

	get func(*Observation) float64
	set func(*Observation, float64)
}

// featureSpecs lists every input in canonical (form) order.
var featureSpecs = []FeatureSpec{
	{
		Name: FeatureCloudLowType, Label: "Low cloud type (CL)", Help: "Code 0-9",
		Group: GroupCloudWeather, Min: 0, Max: 9, Step: 1, Default: 5, Integer: true,
		get: func(o *Observation) float64 { return float64(o.CloudLowType) },
		set: func(o *Observation, v float64) { o.CloudLowType = int(v) },
	},
	{
		Name: FeatureCloudLowMedAmount, Label: "Low/medium cloud amount", Unit: "okta",
		Group: GroupCloudWeather, Min: 0, Max: 8, Step: 1, Default: 3, Integer: true,
		get: func(o *Observation) float64 { return float64(o.CloudLowMedAmount) },
		set: func(o *Observation, v float64) { o.CloudLowMedAmount = int(v) },
	},
	{
		Name: FeatureCloudMedType, Label: "Medium cloud type (CM)", Help: "Code 0-9",
		Group: GroupCloudWeather, Min: 0, Max: 9, Step: 1, Default: 7, Integer: true,
		get: func(o *Observation) float64 { return float64(o.CloudMedType) },
		set: func(o *Observation, v float64) { o.CloudMedType = int(v) },
	},
	{
		Name: FeatureCloudHighType, Label: "High cloud type (CH)", Help: "Code 0-9",
		Group: GroupCloudWeather, Min: 0, Max: 9, Step: 1, Default: 6, Integer: true,
		get: func(o *Observation) float64 { return float64(o.CloudHighType) },
		set: func(o *Observation, v float64) { o.CloudHighType = int(v) },
	},
	{
		Name: FeatureCloudCover, Label: "Total cloud cover", Unit: "okta",
		Group: GroupCloudWeather, Min: 0, Max: 8, Step: 1, Default: 7, Integer: true,
		get: func(o *Observation) float64 { return float64(o.CloudCover) },
		set: func(o *Observation, v float64) { o.CloudCover = int(v) },
	},
	{
		Name: FeatureLandCondition, Label: "Land condition (LAND_COND)", Help: "0 dry, 1 wet, 2 waterlogged",
		Group: GroupCloudWeather, Min: 0, Max: 2, Step: 1, Default: 1, Integer: true,
		get: func(o *Observation) float64 { return float64(o.LandCondition) },
		set: func(o *Observation, v float64) { o.LandCondition = LandCondition(v) },
	},
	{
		Name: FeaturePresentWeather, Label: "Present weather (WW)", Help: "Code 0-99",
		Group: GroupCloudWeather, Min: 0, Max: 99, Step: 1, Default: 10, Integer: true,
		get: func(o *Observation) float64 { return float64(o.PresentWeather) },
		set: func(o *Observation, v float64) { o.PresentWeather = int(v) },
	},
	{
		Name: FeatureDewPoint, Label: "Dew point temperature", Unit: "°C",
		Group: GroupAtmosphere, Min: 20, Max: 30, Step: 0.1, Default: 24.5,
		get: func(o *Observation) float64 { return o.DewPoint },
		set: func(o *Observation, v float64) { o.DewPoint = v },
	},
	{
		Name: FeatureDryBulb, Label: "Air temperature", Unit: "°C",
		Group: GroupAtmosphere, Min: 21, Max: 36, Step: 0.1, Default: 27.0,
		get: func(o *Observation) float64 { return o.DryBulb },
		set: func(o *Observation, v float64) { o.DryBulb = v },
	},
	{
		Name: FeatureWetBulb, Label: "Wet bulb temperature", Unit: "°C",
		Group: GroupAtmosphere, Min: 20, Max: 30, Step: 0.1, Default: 25.5,
		get: func(o *Observation) float64 { return o.WetBulb },
		set: func(o *Observation, v float64) { o.WetBulb = v },
	},
	{
		Name: FeatureWindSpeed, Label: "Wind speed", Unit: "m/s",
		Group: GroupAtmosphere, Min: 0, Max: 15, Step: 0.1, Default: 4.0,
		get: func(o *Observation) float64 { return o.WindSpeed },
		set: func(o *Observation, v float64) { o.WindSpeed = v },
	},
	{
		Name: FeatureRelativeHumidity, Label: "Relative humidity", Unit: "%",
		Group: GroupAtmosphere, Min: 40, Max: 100, Step: 1, Default: 85, Integer: true,
		get: func(o *Observation) float64 { return float64(o.RelativeHumidity) },
		set: func(o *Observation, v float64) { o.RelativeHumidity = int(v) },
	},
	{
		Name: FeaturePressureQFF, Label: "Pressure QFF", Unit: "mb",
		Group: GroupAtmosphere, Min: 1000, Max: 1020, Step: 0.1, Default: 1009.5,
		get: func(o *Observation) float64 { return o.PressureQFF },
		set: func(o *Observation, v float64) { o.PressureQFF = v },
	},
	{
		Name: FeaturePressureQFE, Label: "Pressure QFE", Unit: "mb",
		Group: GroupAtmosphere, Min: 1000, Max: 1020, Step: 0.1, Default: 1008.6,
		get: func(o *Observation) float64 { return o.PressureQFE },
		set: func(o *Observation, v float64) { o.PressureQFE = v },
	},
}

var specIndex = func() map[string]int {
	m := make(map[string]int, len(featureSpecs))
	for i, s := range featureSpecs {
		m[s.Name] = i
	}
	return m
}()

// FeatureSpecs returns a copy of the input descriptions in canonical order.
func FeatureSpecs() []FeatureSpec {
	out := make([]FeatureSpec, len(featureSpecs))
	copy(out, featureSpecs)
	return out
}

// LookupFeatureSpec returns the description for a feature name.
func LookupFeatureSpec(name string) (FeatureSpec, bool) {
	i, ok := specIndex[name]
	if !ok {
		return FeatureSpec{}, false
	}
	return featureSpecs[i], true
}

// FeatureNames returns the canonical feature order.
func FeatureNames() []string {
	names := make([]string, len(featureSpecs))
	for i, s := range featureSpecs {
		names[i] = s.Name
	}
	return names
}

// Value reads this feature from an observation.
func (s FeatureSpec) Value(o Observation) float64 {
	return s.get(&o)
}
