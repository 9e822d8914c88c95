// Package weather holds the weather and geocoding types shared by the
// outdoor air quality providers.
package weather

import (
	"errors"
	"math"
	"time"
)

// Weather errors.
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNoDataForLocation  = errors.New("no data for location")
	ErrPlaceNotFound      = errors.New("place not found")
)

// ValidateCoordinates rejects latitudes outside [-90, 90], longitudes outside
// [-180, 180] and non-finite values.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Observation is the current weather at a point.
type Observation struct {
	Lat float64
	Lon float64

	// Temperature and FeelsLike in Celsius.
	Temperature float64
	FeelsLike   float64

	// Humidity percentage (0-100)
	Humidity float64

	// Pressure in hPa
	Pressure float64

	// UVIndex is only present when the upstream reports it.
	UVIndex *float64

	// CloudCover percentage (0-100)
	CloudCover float64

	WindSpeed     float64 // m/s
	WindDirection float64 // degrees

	Condition   Condition
	Description string

	// Rain volume in mm for the last hour and last three hours, when reported.
	Rain1h *float64
	Rain3h *float64

	ObservedAt time.Time
	FetchedAt  time.Time
}

// Condition is the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// UVLevel is the WHO UV index band.
type UVLevel string

const (
	UVLow      UVLevel = "LOW"
	UVModerate UVLevel = "MODERATE"
	UVHigh     UVLevel = "HIGH"
	UVVeryHigh UVLevel = "VERY_HIGH"
	UVExtreme  UVLevel = "EXTREME"
)

var uvAdvice = map[UVLevel]string{
	UVLow:      "No protection needed. You can safely stay outside.",
	UVModerate: "Wear sunscreen and protective clothing during midday hours.",
	UVHigh:     "Protection essential. Use sunscreen SPF 30+, wear hat and sunglasses.",
	UVVeryHigh: "Extra protection needed. Avoid sun during midday hours.",
	UVExtreme:  "Take all precautions. Avoid sun exposure during midday hours.",
}

// ClassifyUV returns the band for a UV index.
func ClassifyUV(uvi float64) UVLevel {
	switch {
	case uvi <= 2:
		return UVLow
	case uvi <= 5:
		return UVModerate
	case uvi <= 7:
		return UVHigh
	case uvi <= 10:
		return UVVeryHigh
	default:
		return UVExtreme
	}
}

// Advice returns the sun protection advice for the band.
func (l UVLevel) Advice() string {
	return uvAdvice[l]
}

// Place is a geocoding result.
type Place struct {
	Name    string
	Lat     float64
	Lon     float64
	Country string
	State   string
}

// DisplayName formats the place as "Name, State, Country", skipping empty parts.
func (p Place) DisplayName() string {
	name := p.Name
	for _, part := range []string{p.State, p.Country} {
		if part != "" {
			name += ", " + part
		}
	}
	return name
}
