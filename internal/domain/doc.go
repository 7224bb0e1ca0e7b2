// Package domain models ME 48 synoptic observations and the rainfall
// categories derived from them.
//
// # Data Source
//
// Observations follow the WMO synoptic (SYNOP) conventions used in the
// Indonesian ME 48 observer form at Kualanamu (WIMM). The regression model
// served by this service was trained offline on historical ME 48 records,
// with the target being rainfall accumulated over the following 3 hours.
//
// # Observation Conventions
//
// Cloud codes:
//
//	CL, CM, CH are WMO code table 0513/0515/0509 values 0–9 describing the
//	dominant low, medium and high cloud genus.
//	Cloud amounts are reported in oktas: 0 (clear) to 8 (overcast).
//
// Present weather:
//
//	WW is WMO code table 4677, 0–99. Codes 50–99 indicate precipitation at
//	or near the station.
//
// Land condition:
//
//	0 = dry, 1 = wet, 2 = waterlogged (flooded).
//
// Pressure:
//
//	QFF is pressure reduced to mean sea level; QFE is pressure at station
//	elevation. Both in millibars (hPa).
//
// # Feature Order
//
// The fitted input scaler records the feature names it was trained on. All
// vectors passed to the model must follow that order exactly; see
// [OrderFeatures] and [CompileFeatureOrder].
//
// # Rainfall Categories
//
// The predicted 3-hour accumulation (mm) maps to four categories:
//
//	< 0.5 mm      No Rain
//	0.5 – 5 mm    Light Rain   (both ends inclusive)
//	> 5 – 10 mm   Moderate Rain
//	> 10 mm       Heavy Rain
//
// See [Categorize].
package domain
