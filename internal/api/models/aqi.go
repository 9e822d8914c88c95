package models

import "github.com/airsight/airsight/internal/aqi"

// CalculateRequest is the request body for POST /v1/aqi:calculate. Every
// field is required; pointers tell a missing value from zero.
type CalculateRequest struct {
	PM25 *float64 `json:"pm25"`
	PM10 *float64 `json:"pm10"`
	CO   *float64 `json:"co"`
	NO2  *float64 `json:"no2"`
	SO2  *float64 `json:"so2"`
	O3   *float64 `json:"o3"`
}

// AQIResult is the engine output for one set of concentrations.
type AQIResult struct {
	AQI               int                   `json:"aqi"`
	Level             aqi.Level             `json:"level"`
	Label             string                `json:"label"`
	ColorToken        string                `json:"colorToken"`
	Description       string                `json:"description"`
	DominantPollutant aqi.Pollutant         `json:"dominantPollutant"`
	SubIndices        map[aqi.Pollutant]int `json:"subIndices"`
}

// Recommendation is health advice for one audience.
type Recommendation struct {
	Group  string `json:"group"`
	Advice string `json:"advice"`
}

// Classification is the band an index falls into.
type Classification struct {
	AQI             int              `json:"aqi"`
	Level           aqi.Level        `json:"level"`
	Label           string           `json:"label"`
	ColorToken      string           `json:"colorToken"`
	Description     string           `json:"description"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ConcentrationLevel classifies a single pollutant concentration.
type ConcentrationLevel struct {
	Pollutant   aqi.Pollutant `json:"pollutant"`
	DisplayName string        `json:"displayName"`
	Unit        string        `json:"unit"`
	Value       float64       `json:"value"`
	Level       aqi.Level     `json:"level"`
	Label       string        `json:"label"`
	SubIndex    int           `json:"subIndex"`
}

// Breakpoint is one segment of a pollutant's breakpoint table.
type Breakpoint struct {
	ConcLow   float64 `json:"concLow"`
	ConcHigh  float64 `json:"concHigh"`
	IndexLow  int     `json:"indexLow"`
	IndexHigh int     `json:"indexHigh"`
}

// BreakpointTable is the full table for one pollutant.
type BreakpointTable struct {
	Pollutant   aqi.Pollutant `json:"pollutant"`
	DisplayName string        `json:"displayName"`
	Unit        string        `json:"unit"`
	Segments    []Breakpoint  `json:"segments"`
}

// BreakpointTables lists every table in evaluation order.
type BreakpointTables struct {
	Items []BreakpointTable `json:"items"`
}

// NewAQIResult converts an engine result.
func NewAQIResult(r aqi.Result) AQIResult {
	subIndices := make(map[aqi.Pollutant]int, len(r.SubIndices))
	for p, v := range r.SubIndices {
		subIndices[p] = v
	}
	return AQIResult{
		AQI:               r.AQI,
		Level:             r.Level,
		Label:             r.Level.Label(),
		ColorToken:        r.Level.ColorToken(),
		Description:       aqi.Describe(r.AQI),
		DominantPollutant: r.DominantPollutant,
		SubIndices:        subIndices,
	}
}

// NewRecommendations converts engine recommendations.
func NewRecommendations(recs []aqi.Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		out[i] = Recommendation{Group: r.Group, Advice: r.Advice}
	}
	return out
}
