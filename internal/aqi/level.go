package aqi

import (
	"fmt"
	"strings"
)

// Level is the five-band severity scale. Levels are ordered: a greater value
// is more severe.
type Level int

const (
	LevelGood Level = iota
	LevelModerate
	LevelUnhealthy
	LevelVeryUnhealthy
	LevelHazardous
)

// Levels lists every level from least to most severe.
var Levels = []Level{
	LevelGood,
	LevelModerate,
	LevelUnhealthy,
	LevelVeryUnhealthy,
	LevelHazardous,
}

var levelNames = map[Level]string{
	LevelGood:          "good",
	LevelModerate:      "moderate",
	LevelUnhealthy:     "unhealthy",
	LevelVeryUnhealthy: "very-unhealthy",
	LevelHazardous:     "hazardous",
}

var levelLabels = map[Level]string{
	LevelGood:          "Good",
	LevelModerate:      "Moderate",
	LevelUnhealthy:     "Unhealthy",
	LevelVeryUnhealthy: "Very Unhealthy",
	LevelHazardous:     "Hazardous",
}

// String returns the machine name ("very-unhealthy").
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Label returns the human-readable name ("Very Unhealthy").
func (l Level) Label() string {
	if label, ok := levelLabels[l]; ok {
		return label
	}
	return l.String()
}

// ColorToken returns the dashboard color token for the level.
func (l Level) ColorToken() string {
	return "quality-" + l.String()
}

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel parses a level name. "very unhealthy" and "very_unhealthy" are
// accepted as well as the canonical "very-unhealthy".
func ParseLevel(s string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "-", "_", "-").Replace(normalized)
	for l, name := range levelNames {
		if name == normalized {
			return l, nil
		}
	}
	return LevelGood, fmt.Errorf("unknown level %q", s)
}

// ClassifyAQI maps an index to its level. Each band includes its upper bound:
// 150 is unhealthy, 151 is very unhealthy.
func ClassifyAQI(aqi int) Level {
	switch {
	case aqi <= 50:
		return LevelGood
	case aqi <= 100:
		return LevelModerate
	case aqi <= 150:
		return LevelUnhealthy
	case aqi <= 200:
		return LevelVeryUnhealthy
	default:
		return LevelHazardous
	}
}

// Describe returns a short description of an index value. Unlike Level it
// distinguishes 201-300 from values above 300.
func Describe(aqi int) string {
	switch {
	case aqi <= 50:
		return "Air quality is satisfactory"
	case aqi <= 100:
		return "Acceptable for most people"
	case aqi <= 150:
		return "Unhealthy for sensitive groups"
	case aqi <= 200:
		return "Unhealthy for everyone"
	case aqi <= 300:
		return "Very unhealthy - health alert"
	default:
		return "Hazardous - emergency conditions"
	}
}
