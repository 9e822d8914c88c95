package airquality

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/weather"
)

// OutdoorProvider fetches the outdoor reading at a point.
type OutdoorProvider interface {
	FetchOutdoor(ctx context.Context, lat, lon float64) (*Reading, error)
}

// IndoorSource returns the most recent indoor reading. It returns
// ErrNoIndoorData when nothing has been reported yet.
type IndoorSource interface {
	Latest(ctx context.Context) (*Reading, error)
}

// Predictor estimates an index from raw concentrations.
type Predictor interface {
	Predict(ctx context.Context, c aqi.Concentrations) (int, error)
}

// MetricsRecorder receives cache and upstream call measurements.
type MetricsRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
	RecordCacheHit(provider, operation string)
	RecordCacheMiss(provider, operation string)
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string, string, time.Duration, error) {}
func (nopMetrics) RecordCacheHit(string, string)                      {}
func (nopMetrics) RecordCacheMiss(string, string)                     {}

// IndoorKey is the cache key of the indoor assessment.
const IndoorKey = "indoor"

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	Outdoor OutdoorProvider

	// Indoor is optional. Without it Indoor returns ErrIndoorNotConfigured.
	Indoor IndoorSource

	// Predictor is optional.
	Predictor Predictor

	// Metrics is optional.
	Metrics MetricsRecorder

	Logger zerolog.Logger

	// CacheTTL is how long an assessment is served without refetching
	// (default: 30 seconds).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale assessments on provider errors
	// (default: 10 minutes).
	StaleIfErrorTTL time.Duration

	// FetchTimeout bounds a shared upstream fetch, which outlives the
	// request that started it (default: 30 seconds).
	FetchTimeout time.Duration
}

// Service serves assessments with a per-location cache. Concurrent requests
// for the same location share one upstream fetch.
type Service struct {
	outdoor         OutdoorProvider
	indoor          IndoorSource
	predictor       Predictor
	metrics         MetricsRecorder
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	fetchTimeout    time.Duration

	group singleflight.Group

	mu              sync.RWMutex
	cache           map[string]*cachedAssessment
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedAssessment struct {
	assessment *Assessment
	fetchedAt  time.Time
	expiresAt  time.Time
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Second
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 10 * time.Minute
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 30 * time.Second
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Service{
		outdoor:         cfg.Outdoor,
		indoor:          cfg.Indoor,
		predictor:       cfg.Predictor,
		metrics:         metrics,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		fetchTimeout:    fetchTimeout,
		cache:           make(map[string]*cachedAssessment),
		cleanupInterval: 5 * time.Minute,
	}
}

// LocationKey returns the cache key for a point. Coordinates are rounded to
// four decimals (about 11 m).
func LocationKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f:%.4f", lat, lon)
}

// Outdoor returns the outdoor assessment for a point.
func (s *Service) Outdoor(ctx context.Context, lat, lon float64) (*Assessment, error) {
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return nil, fmt.Errorf("%w: %.6f, %.6f", ErrInvalidLocation, lat, lon)
	}

	return s.get(ctx, SourceOutdoor, LocationKey(lat, lon), func(ctx context.Context) (*Assessment, error) {
		reading, err := s.outdoor.FetchOutdoor(ctx, lat, lon)
		if err != nil {
			s.logger.Error().Err(err).
				Float64("lat", lat).
				Float64("lon", lon).
				Msg("failed to fetch outdoor air quality")
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return Assess(reading), nil
	})
}

// Indoor returns the indoor assessment, including the predicted index when a
// predictor is configured and reachable.
func (s *Service) Indoor(ctx context.Context) (*Assessment, error) {
	if s.indoor == nil {
		return nil, ErrIndoorNotConfigured
	}

	return s.get(ctx, SourceIndoor, IndoorKey, func(ctx context.Context) (*Assessment, error) {
		reading, err := s.indoor.Latest(ctx)
		if err != nil {
			if errors.Is(err, ErrNoIndoorData) {
				return nil, err
			}
			s.logger.Error().Err(err).Msg("failed to read indoor air quality")
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}

		assessment := Assess(reading)
		s.predict(ctx, assessment)
		return assessment, nil
	})
}

func (s *Service) predict(ctx context.Context, a *Assessment) {
	if s.predictor == nil {
		return
	}
	start := time.Now()
	predicted, err := s.predictor.Predict(ctx, a.Reading.EngineInput())
	s.metrics.RecordRequest("predictor", "predict", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).Msg("aqi prediction unavailable")
		return
	}
	a.SetPrediction(predicted)
}

// get serves key from cache or loads it once for all concurrent callers.
func (s *Service) get(ctx context.Context, source Source, key string, load func(context.Context) (*Assessment, error)) (*Assessment, error) {
	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.RecordCacheHit(string(source), "assess")
		return cached.assessment, nil
	}
	s.mu.RUnlock()
	s.metrics.RecordCacheMiss(string(source), "assess")

	// The fetch is shared by every caller waiting on key, so it must not
	// die with whichever request happened to start it.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.refresh(fetchCtx, key, func(ctx context.Context) (*Assessment, error) {
			start := time.Now()
			a, err := load(ctx)
			s.metrics.RecordRequest(string(source), "fetch", time.Since(start), err)
			return a, err
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Assessment), nil
	}
}

func (s *Service) refresh(ctx context.Context, key string, load func(context.Context) (*Assessment, error)) (*Assessment, error) {
	// Another caller may have refreshed while we waited.
	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.assessment, nil
	}

	assessment, err := load(ctx)
	if err != nil {
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Str("key", key).
				Time("fetched_at", cached.fetchedAt).
				Msg("serving stale air quality data due to provider error")
			return cached.assessment, nil
		}
		return nil, err
	}

	now := time.Now()
	s.mu.Lock()
	s.cache[key] = &cachedAssessment{
		assessment: assessment,
		fetchedAt:  now,
		expiresAt:  now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded(now)
	s.mu.Unlock()

	s.logger.Debug().
		Str("key", key).
		Int("aqi", assessment.Result.AQI).
		Str("dominant", string(assessment.Result.DominantPollutant)).
		Msg("air quality assessment refreshed")

	return assessment, nil
}

// cleanupIfNeeded drops entries too old to be served even as stale data.
// Callers hold s.mu.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().Int("expired_entries", expired).Msg("cleaned up air quality cache")
	}
}

// InvalidateCache clears every cached assessment.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedAssessment)
}

// CacheStatus describes the cache contents.
type CacheStatus struct {
	Entries      int
	FreshEntries int
	HasIndoor    bool
}

// CacheStatus returns the current cache state.
func (s *Service) CacheStatus() CacheStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	status := CacheStatus{Entries: len(s.cache)}
	for key, cached := range s.cache {
		if now.Before(cached.expiresAt) {
			status.FreshEntries++
		}
		if key == IndoorKey {
			status.HasIndoor = true
		}
	}
	return status
}

// IndoorConfigured reports whether an indoor source is wired.
func (s *Service) IndoorConfigured() bool {
	return s.indoor != nil
}
