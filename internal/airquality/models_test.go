package airquality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/aqi"
)

func TestReading_EngineInput(t *testing.T) {
	raw := aqi.Concentrations{PM25: 12, PM10: 30, CO: 4400, NO2: 40, SO2: 5, O3: 60}

	outdoor := &airquality.Reading{Source: airquality.SourceOutdoor, Concentrations: raw}
	indoor := &airquality.Reading{Source: airquality.SourceIndoor, Concentrations: raw}

	assert.InDelta(t, 4.4, outdoor.EngineInput().CO, 1e-9)
	assert.Equal(t, 12.0, outdoor.EngineInput().PM25)
	assert.Equal(t, 4400.0, outdoor.Concentrations.CO, "reading must not be mutated")

	assert.Equal(t, raw, indoor.EngineInput())
}

func TestReading_Unit(t *testing.T) {
	outdoor := &airquality.Reading{Source: airquality.SourceOutdoor}
	indoor := &airquality.Reading{Source: airquality.SourceIndoor}

	for _, p := range aqi.Pollutants {
		assert.Equal(t, "µg/m³", outdoor.Unit(p), p)
		assert.Equal(t, p.Unit(), indoor.Unit(p), p)
	}
}

func TestAssess(t *testing.T) {
	reading := &airquality.Reading{
		Source:         airquality.SourceIndoor,
		Concentrations: aqi.Concentrations{PM25: 500},
	}

	a := airquality.Assess(reading)

	assert.Same(t, reading, a.Reading)
	assert.Equal(t, 500, a.Result.AQI)
	assert.Equal(t, aqi.LevelHazardous, a.Result.Level)
	assert.Equal(t, aqi.LevelHazardous, a.MetricLevels[aqi.PollutantPM25])
	assert.Equal(t, aqi.LevelGood, a.MetricLevels[aqi.PollutantO3])
	assert.Equal(t, "Hazardous - emergency conditions", a.Description)
	assert.Len(t, a.Recommendations, 3)
	assert.Nil(t, a.PredictedAQI)
}

func TestAssess_RecommendationsFollowBadges(t *testing.T) {
	tests := []struct {
		name   string
		conc   aqi.Concentrations
		index  aqi.Level
		advice aqi.Level
	}{
		{
			name:   "CO dominates the index",
			conc:   aqi.Concentrations{PM25: 5, CO: 20},
			index:  aqi.LevelHazardous,
			advice: aqi.LevelGood,
		},
		{
			name:   "SO2 dominates the index",
			conc:   aqi.Concentrations{PM25: 20, SO2: 400},
			index:  aqi.LevelHazardous,
			advice: aqi.LevelModerate,
		},
		{
			name:   "NO2 badge is worst",
			conc:   aqi.Concentrations{PM25: 5, NO2: 200},
			index:  aqi.LevelUnhealthy,
			advice: aqi.LevelUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := airquality.Assess(&airquality.Reading{
				Source:         airquality.SourceIndoor,
				Concentrations: tt.conc,
			})

			assert.Equal(t, tt.index, a.Result.Level)
			assert.Equal(t, aqi.Recommendations(tt.advice), a.Recommendations)
		})
	}
}

func TestAssessment_SetPrediction(t *testing.T) {
	a := airquality.Assess(&airquality.Reading{Source: airquality.SourceIndoor})

	a.SetPrediction(151)

	require.NotNil(t, a.PredictedAQI)
	require.NotNil(t, a.PredictedLevel)
	assert.Equal(t, 151, *a.PredictedAQI)
	assert.Equal(t, aqi.LevelVeryUnhealthy, *a.PredictedLevel)
}

func TestPresetLocations(t *testing.T) {
	require.Len(t, airquality.PresetLocations, 6)
	assert.Contains(t, airquality.PresetLocations, airquality.DefaultLocation)
}
