// Package indoor decodes the indoor sensor payload shared by the Firebase and
// MQTT feeds.
package indoor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/weather"
)

// ErrInvalidPayload is returned for payloads that cannot be turned into a reading.
var ErrInvalidPayload = errors.New("invalid indoor payload")

// millisThreshold separates Unix seconds from Unix milliseconds. Any seconds
// value above it is past the year 33658.
const millisThreshold = 1e12

// Payload is the sensor document. Concentrations are in engine units.
type Payload struct {
	PM25        float64  `json:"PM2_5"`
	PM10        float64  `json:"PM10"`
	NO2         float64  `json:"NO2"`
	CO          float64  `json:"CO"`
	SO2         float64  `json:"SO2"`
	O3          float64  `json:"O3"`
	Temperature float64  `json:"temperature"`
	FeelsLike   float64  `json:"feels_like"`
	Humidity    float64  `json:"humidity"`
	Pressure    float64  `json:"pressure"`
	Timestamp   *float64 `json:"timestamp,omitempty"`
}

// Decode parses a JSON payload.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &p, nil
}

// Concentrations returns the six pollutant values.
func (p *Payload) Concentrations() aqi.Concentrations {
	return aqi.Concentrations{
		PM25: p.PM25,
		PM10: p.PM10,
		CO:   p.CO,
		NO2:  p.NO2,
		SO2:  p.SO2,
		O3:   p.O3,
	}
}

// ObservedAt returns the sensor timestamp, accepting Unix seconds or
// milliseconds. Without a timestamp it returns fallback.
func (p *Payload) ObservedAt(fallback time.Time) time.Time {
	if p.Timestamp == nil || *p.Timestamp <= 0 {
		return fallback
	}
	ts := *p.Timestamp
	if ts >= millisThreshold {
		return time.UnixMilli(int64(ts))
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Reading converts the payload into an indoor reading.
func (p *Payload) Reading(provider string, now time.Time) (*airquality.Reading, error) {
	conc := p.Concentrations()
	if err := conc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &airquality.Reading{
		Source:         airquality.SourceIndoor,
		Provider:       provider,
		Concentrations: conc,
		Weather: &weather.Observation{
			Temperature: p.Temperature,
			FeelsLike:   p.FeelsLike,
			Humidity:    p.Humidity,
			Pressure:    p.Pressure,
			ObservedAt:  p.ObservedAt(now),
			FetchedAt:   now,
		},
		ObservedAt: p.ObservedAt(now),
		FetchedAt:  now,
	}, nil
}
