package models

import "github.com/airsight/airsight/internal/aqi"

// Location is a named point.
type Location struct {
	Name  string `json:"name"`
	Point Point  `json:"point"`
}

// PollutantReading is one measured concentration with its own level.
type PollutantReading struct {
	Pollutant   aqi.Pollutant `json:"pollutant"`
	DisplayName string        `json:"displayName"`
	Unit        string        `json:"unit"`
	Value       float64       `json:"value"`
	Level       aqi.Level     `json:"level"`
}

// UVIndex is the UV index with its band and advice.
type UVIndex struct {
	Value  float64 `json:"value"`
	Level  string  `json:"level"`
	Advice string  `json:"advice"`
}

// Weather is the climate context of a reading. Indoor sensors only report
// temperature, feels-like, humidity and pressure.
type Weather struct {
	Temperature   float64  `json:"temperature"`
	FeelsLike     float64  `json:"feelsLike"`
	Humidity      float64  `json:"humidity"`
	Pressure      float64  `json:"pressure"`
	CloudCover    *float64 `json:"cloudCover,omitempty"`
	WindSpeed     *float64 `json:"windSpeed,omitempty"`
	WindDirection *float64 `json:"windDirection,omitempty"`
	Rain1h        *float64 `json:"rain1h,omitempty"`
	Rain3h        *float64 `json:"rain3h,omitempty"`
	Condition     string   `json:"condition,omitempty"`
	Description   string   `json:"description,omitempty"`
	UV            *UVIndex `json:"uv,omitempty"`
}

// Prediction is the index estimated by the remote model.
type Prediction struct {
	AQI   int       `json:"aqi"`
	Level aqi.Level `json:"level"`
	Label string    `json:"label"`
}

// AirQuality is an assessed reading.
type AirQuality struct {
	Source          string             `json:"source"`
	Provider        string             `json:"provider"`
	Location        *Location          `json:"location,omitempty"`
	AQI             AQIResult          `json:"aqi"`
	Pollutants      []PollutantReading `json:"pollutants"`
	Weather         *Weather           `json:"weather,omitempty"`
	Recommendations []Recommendation   `json:"recommendations"`
	Prediction      *Prediction        `json:"prediction,omitempty"`
	Alerts          []Alert            `json:"alerts,omitempty"`
	ObservedAt      Timestamp          `json:"observedAt"`
	FetchedAt       Timestamp          `json:"fetchedAt"`
}

// Alert is a raised pollutant alert.
type Alert struct {
	ID        string        `json:"id"`
	Key       string        `json:"key"`
	Source    string        `json:"source"`
	Pollutant aqi.Pollutant `json:"pollutant"`
	Level     aqi.Level     `json:"level"`
	Value     float64       `json:"value"`
	Unit      string        `json:"unit"`
	Message   string        `json:"message"`
	RaisedAt  Timestamp     `json:"raisedAt"`
}

// AlertList is a list of recent alerts, newest first.
type AlertList struct {
	Items []Alert `json:"items"`
}
