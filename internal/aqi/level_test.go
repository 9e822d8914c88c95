package aqi_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/aqi"
)

func TestClassifyAQI(t *testing.T) {
	tests := []struct {
		aqi      int
		expected aqi.Level
	}{
		{0, aqi.LevelGood},
		{50, aqi.LevelGood},
		{51, aqi.LevelModerate},
		{100, aqi.LevelModerate},
		{101, aqi.LevelUnhealthy},
		{150, aqi.LevelUnhealthy},
		{151, aqi.LevelVeryUnhealthy},
		{200, aqi.LevelVeryUnhealthy},
		{201, aqi.LevelHazardous},
		{500, aqi.LevelHazardous},
		{-1, aqi.LevelGood},
		{900, aqi.LevelHazardous},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, aqi.ClassifyAQI(tt.aqi), "aqi %d", tt.aqi)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		aqi      int
		expected string
	}{
		{0, "Air quality is satisfactory"},
		{50, "Air quality is satisfactory"},
		{75, "Acceptable for most people"},
		{150, "Unhealthy for sensitive groups"},
		{151, "Unhealthy for everyone"},
		{250, "Very unhealthy - health alert"},
		{300, "Very unhealthy - health alert"},
		{301, "Hazardous - emergency conditions"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, aqi.Describe(tt.aqi), "aqi %d", tt.aqi)
	}
}

func TestLevel_Names(t *testing.T) {
	assert.Equal(t, "very-unhealthy", aqi.LevelVeryUnhealthy.String())
	assert.Equal(t, "Very Unhealthy", aqi.LevelVeryUnhealthy.Label())
	assert.Equal(t, "quality-good", aqi.LevelGood.ColorToken())
	assert.Equal(t, "quality-hazardous", aqi.LevelHazardous.ColorToken())
	assert.Equal(t, "Level(9)", aqi.Level(9).String())
	assert.False(t, aqi.Level(9).Valid())
}

func TestLevel_Ordering(t *testing.T) {
	for i := 1; i < len(aqi.Levels); i++ {
		assert.Greater(t, aqi.Levels[i], aqi.Levels[i-1])
	}
}

func TestParseLevel(t *testing.T) {
	for _, input := range []string{"very-unhealthy", "Very Unhealthy", "VERY_UNHEALTHY", " very unhealthy "} {
		l, err := aqi.ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, aqi.LevelVeryUnhealthy, l)
	}

	_, err := aqi.ParseLevel("terrible")
	assert.Error(t, err)
}

func TestLevel_JSON(t *testing.T) {
	type payload struct {
		Level aqi.Level `json:"level"`
	}

	data, err := json.Marshal(payload{Level: aqi.LevelUnhealthy})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"unhealthy"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"level":"hazardous"}`), &decoded))
	assert.Equal(t, aqi.LevelHazardous, decoded.Level)

	_, err = json.Marshal(payload{Level: aqi.Level(42)})
	assert.Error(t, err)
}
