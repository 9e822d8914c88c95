package aqi_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/airsight/airsight/internal/aqi"
)

func TestLevelForConcentration_PM25(t *testing.T) {
	tests := []struct {
		value    float64
		expected aqi.Level
	}{
		{0, aqi.LevelGood},
		{12, aqi.LevelGood},
		{12.1, aqi.LevelModerate},
		{35.4, aqi.LevelModerate},
		{35.5, aqi.LevelUnhealthy},
		{55.4, aqi.LevelUnhealthy},
		{150.4, aqi.LevelVeryUnhealthy},
		{150.5, aqi.LevelHazardous},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, aqi.PM25Level(tt.value), "PM2.5 %v", tt.value)
	}
}

func TestLevelForConcentration_Helpers(t *testing.T) {
	assert.Equal(t, aqi.LevelModerate, aqi.PM10Level(100))
	assert.Equal(t, aqi.LevelUnhealthy, aqi.COLevel(10))
	assert.Equal(t, aqi.LevelVeryUnhealthy, aqi.NO2Level(400))
	assert.Equal(t, aqi.LevelGood, aqi.SO2Level(35))
	assert.Equal(t, aqi.LevelHazardous, aqi.O3Level(106))
}

func TestLevelForConcentration_EdgeCases(t *testing.T) {
	assert.Equal(t, aqi.LevelHazardous, aqi.LevelForConcentration(aqi.PollutantPM25, math.NaN()))
	assert.Equal(t, aqi.LevelHazardous, aqi.LevelForConcentration(aqi.Pollutant("CO2"), 1))
	assert.Equal(t, aqi.LevelGood, aqi.LevelForConcentration(aqi.PollutantPM25, -3))
}

// Both classification paths agree at every segment boundary.
func TestLevelForConcentration_MatchesSubIndexAtBoundaries(t *testing.T) {
	for _, p := range aqi.Pollutants {
		for _, bp := range aqi.Breakpoints(p) {
			for _, c := range []float64{bp.ConcLow, bp.ConcHigh, (bp.ConcLow + bp.ConcHigh) / 2} {
				fromIndex := aqi.ClassifyAQI(aqi.PollutantSubIndex(p, c))
				assert.Equal(t, fromIndex, aqi.LevelForConcentration(p, c), "%s at %v", p, c)
			}
		}
	}
}

// Inside a gap between segments the sub-index truncates down while the
// threshold check moves up a band. The two paths are independent and this
// disagreement is expected.
func TestLevelForConcentration_DivergesInsideGaps(t *testing.T) {
	tests := []struct {
		pollutant aqi.Pollutant
		value     float64
	}{
		{aqi.PollutantPM25, 12.05},
		{aqi.PollutantPM10, 54.5},
		{aqi.PollutantO3, 54.5},
		{aqi.PollutantCO, 4.45},
	}

	for _, tt := range tests {
		assert.Equal(t, aqi.LevelGood, aqi.ClassifyAQI(aqi.PollutantSubIndex(tt.pollutant, tt.value)))
		assert.Equal(t, aqi.LevelModerate, aqi.LevelForConcentration(tt.pollutant, tt.value))
	}
}

func TestMetricLevels(t *testing.T) {
	levels := aqi.MetricLevels(aqi.Concentrations{PM25: 40, PM10: 10, CO: 0.3, NO2: 70, SO2: 2, O3: 90})

	assert.Len(t, levels, 6)
	assert.Equal(t, aqi.LevelUnhealthy, levels[aqi.PollutantPM25])
	assert.Equal(t, aqi.LevelGood, levels[aqi.PollutantPM10])
	assert.Equal(t, aqi.LevelGood, levels[aqi.PollutantCO])
	assert.Equal(t, aqi.LevelModerate, levels[aqi.PollutantNO2])
	assert.Equal(t, aqi.LevelGood, levels[aqi.PollutantSO2])
	assert.Equal(t, aqi.LevelVeryUnhealthy, levels[aqi.PollutantO3])
}
