// Package alert raises per-pollutant alerts when a reading reaches an
// unhealthy concentration, and fans them out to notifiers.
package alert

import (
	"fmt"
	"strings"
	"time"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/aqi"
)

// Alert is one pollutant crossing into an unhealthy level for a key.
type Alert struct {
	ID        string            `json:"id"`
	Key       string            `json:"key"`
	Source    airquality.Source `json:"source"`
	Pollutant aqi.Pollutant     `json:"pollutant"`
	Level     aqi.Level         `json:"level"`
	Value     float64           `json:"value"`
	Unit      string            `json:"unit"`
	Message   string            `json:"message"`
	RaisedAt  time.Time         `json:"raisedAt"`
}

// Message formats the alert text, e.g. "PM2.5 levels are very unhealthy
// (160.0 µg/m³)".
func Message(p aqi.Pollutant, level aqi.Level, value float64, unit string) string {
	return fmt.Sprintf("%s levels are %s (%.1f %s)",
		p.DisplayName(), strings.ReplaceAll(level.String(), "-", " "), value, unit)
}

// ShouldAlert reports whether a concentration level warrants an alert.
func ShouldAlert(level aqi.Level) bool {
	return level >= aqi.LevelUnhealthy
}

// requiresReading lists pollutants the sensors may leave at zero when they
// do not measure them; a zero value never alerts.
var requiresReading = map[aqi.Pollutant]bool{
	aqi.PollutantNO2: true,
	aqi.PollutantSO2: true,
	aqi.PollutantCO:  true,
}
