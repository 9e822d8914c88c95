package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/alert"
	"github.com/airsight/airsight/internal/favorites"
)

// AirQualityService loads assessments and warms the cache as a side effect.
type AirQualityService interface {
	Outdoor(ctx context.Context, lat, lon float64) (*airquality.Assessment, error)
	Indoor(ctx context.Context) (*airquality.Assessment, error)
}

// AlertEvaluator raises alerts for a reading.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, key string, reading *airquality.Reading) ([]alert.Alert, error)
}

// FavoriteLocations lists every saved location across users.
type FavoriteLocations interface {
	AllLocations(ctx context.Context) ([]*favorites.Favorite, error)
}

// RefreshJob refreshes outdoor assessments for all targets and feeds them to
// the alert evaluator.
type RefreshJob struct {
	config    RefreshConfig
	logger    zerolog.Logger
	service   AirQualityService
	alerts    AlertEvaluator
	favorites FavoriteLocations

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns           int64
	SuccessfulRefresh   int64
	FailedRefreshes     int64
	IndoorRefreshes     int64
	AlertsRaised        int64
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Service AirQualityService

	// Alerts is optional.
	Alerts AlertEvaluator

	// Favorites is optional.
	Favorites FavoriteLocations
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		service:   cfg.Service,
		alerts:    cfg.Alerts,
		favorites: cfg.Favorites,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one run.
type RefreshResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTargets int
	Successful   int
	Failed       int
	AlertsRaised int
	Indoor       bool
	Errors       []RefreshError
}

// RefreshError records a failed target.
type RefreshError struct {
	Target Target
	Error  string
}

// Run executes the refresh job for all targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	targets := j.targets(ctx)
	result := &RefreshResult{
		StartTime:    startTime,
		TotalTargets: len(targets),
	}

	j.logger.Info().
		Int("total_targets", result.TotalTargets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting air quality refresh job")

	targetsChan := make(chan Target, len(targets))
	resultsChan := make(chan targetResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, targetsChan, resultsChan)
		}()
	}

	for _, t := range targets {
		targetsChan <- t
	}
	close(targetsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for tr := range resultsChan {
		if tr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{Target: tr.target, Error: tr.err.Error()})
		} else {
			result.Successful++
		}
		result.AlertsRaised += tr.alerts
	}

	if j.config.IncludeIndoor {
		raised, ok := j.refreshIndoor(ctx)
		result.Indoor = ok
		result.AlertsRaised += raised
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("alerts", result.AlertsRaised).
		Bool("indoor", result.Indoor).
		Msg("air quality refresh job completed")

	return result
}

// targets merges the fixed targets with saved favorites, dropping duplicate
// locations.
func (j *RefreshJob) targets(ctx context.Context) []Target {
	seen := make(map[string]bool, len(j.config.Targets))
	targets := make([]Target, 0, len(j.config.Targets))
	add := func(t Target) {
		if seen[t.Key()] {
			return
		}
		seen[t.Key()] = true
		targets = append(targets, t)
	}

	for _, t := range j.config.Targets {
		add(t)
	}

	if j.config.IncludeFavorites && j.favorites != nil {
		favs, err := j.favorites.AllLocations(ctx)
		if err != nil {
			j.logger.Warn().Err(err).Msg("failed to load favorite locations")
		}
		for _, f := range favs {
			add(Target{Name: f.Name, Lat: f.Lat, Lon: f.Lon})
		}
	}

	return targets
}

type targetResult struct {
	target Target
	alerts int
	err    error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, targets <-chan Target, results chan<- targetResult) {
	for target := range targets {
		select {
		case <-ctx.Done():
			results <- targetResult{target: target, err: ctx.Err()}
		default:
			results <- j.refreshTarget(ctx, target)
		}
	}
}

func (j *RefreshJob) refreshTarget(ctx context.Context, target Target) targetResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	assessment, err := j.service.Outdoor(ctx, target.Lat, target.Lon)
	if err != nil {
		j.logger.Warn().Err(err).Str("target", target.Name).Msg("outdoor refresh failed")
		return targetResult{target: target, err: err}
	}

	return targetResult{target: target, alerts: j.evaluate(ctx, target.Key(), assessment.Reading)}
}

func (j *RefreshJob) refreshIndoor(ctx context.Context) (int, bool) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	assessment, err := j.service.Indoor(ctx)
	switch {
	case errors.Is(err, airquality.ErrIndoorNotConfigured):
		return 0, false
	case errors.Is(err, airquality.ErrNoIndoorData):
		j.logger.Debug().Msg("no indoor reading yet")
		return 0, false
	case err != nil:
		j.logger.Warn().Err(err).Msg("indoor refresh failed")
		return 0, false
	}

	return j.evaluate(ctx, airquality.IndoorKey, assessment.Reading), true
}

func (j *RefreshJob) evaluate(ctx context.Context, key string, reading *airquality.Reading) int {
	if j.alerts == nil {
		return 0
	}
	raised, err := j.alerts.Evaluate(ctx, key, reading)
	if err != nil {
		j.logger.Warn().Err(err).Str("key", key).Msg("alert delivery failed")
	}
	return len(raised)
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRefresh += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	if result.Indoor {
		j.metrics.IndoorRefreshes++
	}
	j.metrics.AlertsRaised += int64(result.AlertsRaised)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		SuccessfulRefresh:   j.metrics.SuccessfulRefresh,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		IndoorRefreshes:     j.metrics.IndoorRefreshes,
		AlertsRaised:        j.metrics.AlertsRaised,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for the health endpoint.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":            m.TotalRuns,
		"successful_refreshes":  m.SuccessfulRefresh,
		"failed_refreshes":      m.FailedRefreshes,
		"indoor_refreshes":      m.IndoorRefreshes,
		"alerts_raised":         m.AlertsRaised,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
