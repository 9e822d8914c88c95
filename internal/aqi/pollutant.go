package aqi

import (
	"fmt"
	"strings"
)

// Pollutant identifies one of the six pollutants the index is computed from.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantCO   Pollutant = "CO"
	PollutantNO2  Pollutant = "NO2"
	PollutantSO2  Pollutant = "SO2"
	PollutantO3   Pollutant = "O3"
)

// Pollutants is the fixed evaluation order. When two pollutants share the
// maximum sub-index the one listed first is reported as dominant.
var Pollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantCO,
	PollutantNO2,
	PollutantSO2,
	PollutantO3,
}

// DisplayName returns the name shown on dashboards (e.g. "PM2.5", "NO₂").
func (p Pollutant) DisplayName() string {
	switch p {
	case PollutantPM25:
		return "PM2.5"
	case PollutantPM10:
		return "PM10"
	case PollutantCO:
		return "CO"
	case PollutantNO2:
		return "NO₂"
	case PollutantSO2:
		return "SO₂"
	case PollutantO3:
		return "O₃"
	default:
		return string(p)
	}
}

// Unit returns the concentration unit the breakpoint tables are expressed in.
func (p Pollutant) Unit() string {
	switch p {
	case PollutantPM25, PollutantPM10:
		return "µg/m³"
	case PollutantCO:
		return "ppm"
	case PollutantNO2, PollutantSO2, PollutantO3:
		return "ppb"
	default:
		return ""
	}
}

// Valid reports whether p is one of the six known pollutants.
func (p Pollutant) Valid() bool {
	for _, known := range Pollutants {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePollutant parses a pollutant identifier. It accepts the canonical form
// ("PM25") as well as the common spellings "pm2.5", "pm2_5" and "o₃".
func ParsePollutant(s string) (Pollutant, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(".", "", "_", "", "₂", "2", "₃", "3").Replace(normalized)

	p := Pollutant(normalized)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPollutant, s)
	}
	return p, nil
}

// Concentrations holds one measured value per pollutant, each in the unit
// returned by Pollutant.Unit. The engine never converts units.
type Concentrations struct {
	PM25 float64
	PM10 float64
	CO   float64
	NO2  float64
	SO2  float64
	O3   float64
}

// Get returns the concentration for p, or 0 for an unknown pollutant.
func (c Concentrations) Get(p Pollutant) float64 {
	switch p {
	case PollutantPM25:
		return c.PM25
	case PollutantPM10:
		return c.PM10
	case PollutantCO:
		return c.CO
	case PollutantNO2:
		return c.NO2
	case PollutantSO2:
		return c.SO2
	case PollutantO3:
		return c.O3
	default:
		return 0
	}
}

// Validate checks every concentration with ValidateConcentration and returns
// the first failure, naming the pollutant.
func (c Concentrations) Validate() error {
	for _, p := range Pollutants {
		if err := ValidateConcentration(c.Get(p)); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
