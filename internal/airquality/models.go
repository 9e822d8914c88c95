// Package airquality fetches outdoor and indoor readings, scores them with
// the AQI engine and caches the resulting assessments.
package airquality

import (
	"errors"
	"time"

	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/weather"
)

// Service errors.
var (
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
	ErrNoIndoorData        = errors.New("no indoor reading available")
	ErrIndoorNotConfigured = errors.New("indoor source not configured")
	ErrInvalidLocation     = errors.New("invalid location")
)

// Source tells where a reading came from.
type Source string

const (
	SourceOutdoor Source = "outdoor"
	SourceIndoor  Source = "indoor"
)

// Reading is one set of concentrations as reported by a provider, plus the
// weather context measured alongside them.
type Reading struct {
	Source   Source
	Provider string

	// Lat and Lon are zero for indoor readings.
	Lat float64
	Lon float64

	// Concentrations in the provider's units. Outdoor CO is µg/m³.
	Concentrations aqi.Concentrations

	// Weather is nil when the source reports no climate data. Indoor
	// sensors fill temperature, feels-like, humidity and pressure only.
	Weather *weather.Observation

	ObservedAt time.Time
	FetchedAt  time.Time
}

// Unit is the unit p is reported in. Outdoor providers report every
// pollutant in µg/m³.
func (r *Reading) Unit(p aqi.Pollutant) string {
	if r.Source == SourceOutdoor {
		return "µg/m³"
	}
	return p.Unit()
}

// EngineInput returns the concentrations handed to the AQI engine. Outdoor CO
// is converted from µg/m³ to mg/m³; everything else passes through unchanged.
func (r *Reading) EngineInput() aqi.Concentrations {
	c := r.Concentrations
	if r.Source == SourceOutdoor {
		c.CO /= 1000
	}
	return c
}

// Assessment is a scored reading.
type Assessment struct {
	Reading *Reading

	// Result is the engine output for Reading.EngineInput().
	Result aqi.Result

	// MetricLevels classifies each concentration on its own thresholds.
	MetricLevels map[aqi.Pollutant]aqi.Level

	Description     string
	Recommendations []aqi.Recommendation

	// PredictedAQI is set for indoor assessments when the predictor answered.
	PredictedAQI   *int
	PredictedLevel *aqi.Level
}

// Assess scores a reading.
func Assess(r *Reading) *Assessment {
	input := r.EngineInput()
	result := aqi.Calculate(input)
	levels := aqi.MetricLevels(input)

	// Advice follows the particulate, ozone and NO2 badges rather than the
	// index, so a CO or SO2 spike alone does not escalate it.
	advice := aqi.OverallLevel(
		levels[aqi.PollutantPM25],
		levels[aqi.PollutantPM10],
		levels[aqi.PollutantO3],
		levels[aqi.PollutantNO2],
	)

	return &Assessment{
		Reading:         r,
		Result:          result,
		MetricLevels:    levels,
		Description:     aqi.Describe(result.AQI),
		Recommendations: aqi.Recommendations(advice),
	}
}

// SetPrediction records a predicted index on the assessment.
func (a *Assessment) SetPrediction(predicted int) {
	level := aqi.ClassifyAQI(predicted)
	a.PredictedAQI = &predicted
	a.PredictedLevel = &level
}

// Location is a named point.
type Location struct {
	Name string
	Lat  float64
	Lon  float64
}

// PresetLocations are offered to every user and refreshed by the worker.
var PresetLocations = []Location{
	{Name: "Islamabad", Lat: 33.6844, Lon: 73.0479},
	{Name: "Lahore", Lat: 31.5497, Lon: 74.3436},
	{Name: "Karachi", Lat: 24.8607, Lon: 67.0011},
	{Name: "New York", Lat: 40.7128, Lon: -74.0060},
	{Name: "London", Lat: 51.5074, Lon: -0.1278},
	{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503},
}

// DefaultLocation is used when a request names no location.
var DefaultLocation = Location{Name: "New York", Lat: 40.7128, Lon: -74.0060}
