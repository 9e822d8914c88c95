// Package worker provides background air quality refreshes for airsight.
package worker

import (
	"time"

	"github.com/airsight/airsight/internal/airquality"
)

// DefaultSchedule is the cron spec used when REFRESH_SCHEDULE is unset.
const DefaultSchedule = "@every 5m"

// Target is a location refreshed on every run.
type Target struct {
	Name string
	Lat  float64
	Lon  float64
}

// Key returns the cache and alert key of the target.
func (t Target) Key() string {
	return airquality.LocationKey(t.Lat, t.Lon)
}

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Targets are the fixed locations to refresh.
	// If empty, uses DefaultTargets.
	Targets []Target

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each refresh operation.
	// Default: 30 seconds
	Timeout time.Duration

	// IncludeFavorites adds every saved favorite location to the targets.
	IncludeFavorites bool

	// IncludeIndoor evaluates the indoor reading once per run.
	IncludeIndoor bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Targets:          DefaultTargets(),
		Concurrency:      3,
		Timeout:          30 * time.Second,
		IncludeFavorites: true,
		IncludeIndoor:    true,
	}
}

// DefaultTargets returns the preset dashboard locations.
func DefaultTargets() []Target {
	targets := make([]Target, 0, len(airquality.PresetLocations))
	for _, loc := range airquality.PresetLocations {
		targets = append(targets, Target{Name: loc.Name, Lat: loc.Lat, Lon: loc.Lon})
	}
	return targets
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	if len(c.Targets) == 0 {
		c.Targets = DefaultTargets()
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}
