// Package aqi computes the US EPA Air Quality Index from pollutant
// concentrations and classifies it into severity levels.
//
// Every function in this package is pure and safe for concurrent use. The
// breakpoint tables are package-level constants and are never mutated.
package aqi

import (
	"errors"
	"math"
)

// Index bounds.
const (
	MinIndex = 0
	MaxIndex = 500
)

// Input errors.
var (
	ErrNegativeConcentration  = errors.New("concentration is negative")
	ErrNonFiniteConcentration = errors.New("concentration is not a finite number")
	ErrUnknownPollutant       = errors.New("unknown pollutant")
)

// ValidateConcentration reports whether c is usable as a measured value.
// SubIndex and Calculate never fail; this is for callers that want to reject
// bad input at their boundary instead of relying on clamping.
func ValidateConcentration(c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return ErrNonFiniteConcentration
	}
	if c < 0 {
		return ErrNegativeConcentration
	}
	return nil
}

// SubIndex interpolates the index for a single concentration using table.
//
// The first segment containing the concentration is used. Negative and NaN
// concentrations are treated as 0. A concentration in the gap between two
// segments is truncated to the lower segment and yields its IndexHigh.
// A concentration above the last segment, or any input against an empty
// table, yields MaxIndex.
func SubIndex(concentration float64, table []Breakpoint) int {
	c := concentration
	if math.IsNaN(c) || c < 0 {
		c = 0
	}

	for i, bp := range table {
		if bp.Contains(c) {
			return interpolate(c, bp)
		}
		if c < bp.ConcLow {
			if i == 0 {
				return bp.IndexLow
			}
			return table[i-1].IndexHigh
		}
	}

	return MaxIndex
}

// interpolate applies the EPA linear formula, rounding half away from zero.
func interpolate(c float64, bp Breakpoint) int {
	if bp.ConcHigh <= bp.ConcLow {
		return bp.IndexHigh
	}
	slope := float64(bp.IndexHigh-bp.IndexLow) / (bp.ConcHigh - bp.ConcLow)
	return int(math.Round(slope*(c-bp.ConcLow) + float64(bp.IndexLow)))
}

// PollutantSubIndex returns the sub-index of a concentration of p. Unknown
// pollutants have no table and yield MaxIndex.
func PollutantSubIndex(p Pollutant, concentration float64) int {
	return SubIndex(concentration, table(p))
}

// Result is the aggregate index for a set of concentrations.
type Result struct {
	// AQI is the maximum of the sub-indices.
	AQI int

	// Level is ClassifyAQI(AQI).
	Level Level

	// DominantPollutant is the first pollutant, in Pollutants order, whose
	// sub-index equals AQI.
	DominantPollutant Pollutant

	// SubIndices holds one entry per pollutant.
	SubIndices map[Pollutant]int
}

// Calculate computes the sub-index of every pollutant and aggregates them.
func Calculate(c Concentrations) Result {
	result := Result{
		AQI:               -1,
		DominantPollutant: Pollutants[0],
		SubIndices:        make(map[Pollutant]int, len(Pollutants)),
	}

	for _, p := range Pollutants {
		idx := PollutantSubIndex(p, c.Get(p))
		result.SubIndices[p] = idx
		// Strict comparison keeps the earliest pollutant on ties.
		if idx > result.AQI {
			result.AQI = idx
			result.DominantPollutant = p
		}
	}

	result.Level = ClassifyAQI(result.AQI)
	return result
}

// CalculateAQI is Calculate with positional arguments in the fixed
// evaluation order.
func CalculateAQI(pm25, pm10, co, no2, so2, o3 float64) Result {
	return Calculate(Concentrations{
		PM25: pm25,
		PM10: pm10,
		CO:   co,
		NO2:  no2,
		SO2:  so2,
		O3:   o3,
	})
}
