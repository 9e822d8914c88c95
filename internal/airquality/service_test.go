package airquality_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/weather"
)

// mockOutdoor returns a fixed reading for any point.
type mockOutdoor struct {
	mu         sync.Mutex
	err        error
	fetchCount atomic.Int32
	fetchDelay time.Duration
}

func (m *mockOutdoor) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockOutdoor) FetchOutdoor(ctx context.Context, lat, lon float64) (*airquality.Reading, error) {
	m.fetchCount.Add(1)
	if m.fetchDelay > 0 {
		select {
		case <-time.After(m.fetchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &airquality.Reading{
		Source:   airquality.SourceOutdoor,
		Provider: "mock",
		Lat:      lat,
		Lon:      lon,
		Concentrations: aqi.Concentrations{
			PM25: 40,
			PM10: 60,
			CO:   5000, // µg/m³
			NO2:  20,
			SO2:  3,
			O3:   30,
		},
		Weather:    &weather.Observation{Temperature: 21.5, Humidity: 60},
		ObservedAt: time.Now(),
		FetchedAt:  time.Now(),
	}, nil
}

type mockIndoor struct {
	reading *airquality.Reading
	err     error
}

func (m *mockIndoor) Latest(_ context.Context) (*airquality.Reading, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reading, nil
}

type mockPredictor struct {
	value int
	err   error
	calls atomic.Int32
	input aqi.Concentrations
}

func (m *mockPredictor) Predict(_ context.Context, c aqi.Concentrations) (int, error) {
	m.calls.Add(1)
	m.input = c
	return m.value, m.err
}

func indoorReading() *airquality.Reading {
	return &airquality.Reading{
		Source:         airquality.SourceIndoor,
		Provider:       "test-sensor",
		Concentrations: aqi.Concentrations{PM25: 8, PM10: 20, CO: 0.4, NO2: 10, SO2: 1, O3: 12},
		Weather:        &weather.Observation{Temperature: 22, FeelsLike: 23, Humidity: 45, Pressure: 1012},
		ObservedAt:     time.Now(),
	}
}

func newService(outdoor airquality.OutdoorProvider, cfg airquality.ServiceConfig) *airquality.Service {
	cfg.Outdoor = outdoor
	cfg.Logger = zerolog.New(io.Discard)
	return airquality.NewService(cfg)
}

func TestService_Outdoor(t *testing.T) {
	provider := &mockOutdoor{}
	svc := newService(provider, airquality.ServiceConfig{})

	assessment, err := svc.Outdoor(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)

	// PM2.5 40 µg/m³ dominates; CO is scored as 5 mg/m³.
	assert.Equal(t, 112, assessment.Result.AQI)
	assert.Equal(t, aqi.PollutantPM25, assessment.Result.DominantPollutant)
	assert.Equal(t, aqi.LevelUnhealthy, assessment.Result.Level)
	assert.Equal(t, 56, assessment.Result.SubIndices[aqi.PollutantCO])
	assert.Equal(t, aqi.LevelModerate, assessment.MetricLevels[aqi.PollutantCO])
	assert.Equal(t, "Unhealthy for sensitive groups", assessment.Description)
	assert.NotEmpty(t, assessment.Recommendations)
	assert.Nil(t, assessment.PredictedAQI)

	// The reading keeps provider units.
	assert.Equal(t, 5000.0, assessment.Reading.Concentrations.CO)
}

func TestService_Outdoor_Caching(t *testing.T) {
	provider := &mockOutdoor{}
	svc := newService(provider, airquality.ServiceConfig{CacheTTL: time.Minute})
	ctx := context.Background()

	first, err := svc.Outdoor(ctx, 51.5074, -0.1278)
	require.NoError(t, err)

	// Same point after rounding to four decimals.
	second, err := svc.Outdoor(ctx, 51.50741, -0.12781)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), provider.fetchCount.Load())

	_, err = svc.Outdoor(ctx, 35.6762, 139.6503)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.fetchCount.Load())
}

func TestService_Outdoor_CacheExpiry(t *testing.T) {
	provider := &mockOutdoor{}
	svc := newService(provider, airquality.ServiceConfig{CacheTTL: 50 * time.Millisecond})
	ctx := context.Background()

	_, err := svc.Outdoor(ctx, 33.6844, 73.0479)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = svc.Outdoor(ctx, 33.6844, 73.0479)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.fetchCount.Load())
}

func TestService_Outdoor_ConcurrentRequestsShareFetch(t *testing.T) {
	provider := &mockOutdoor{fetchDelay: 50 * time.Millisecond}
	svc := newService(provider, airquality.ServiceConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Outdoor(context.Background(), 24.8607, 67.0011)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), provider.fetchCount.Load())
}

func TestService_Outdoor_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	provider := &mockOutdoor{fetchDelay: 100 * time.Millisecond}
	svc := newService(provider, airquality.ServiceConfig{})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Outdoor(leaderCtx, 31.5497, 74.3436)
		leaderErr <- err
	}()

	require.Eventually(t, func() bool {
		return provider.fetchCount.Load() == 1
	}, time.Second, 5*time.Millisecond)

	followerErr := make(chan error, 1)
	go func() {
		_, err := svc.Outdoor(context.Background(), 31.5497, 74.3436)
		followerErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	assert.NoError(t, <-followerErr)
	assert.Equal(t, int32(1), provider.fetchCount.Load())

	// The shared fetch completed and populated the cache.
	_, err := svc.Outdoor(context.Background(), 31.5497, 74.3436)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.fetchCount.Load())
}

func TestService_Outdoor_StaleOnError(t *testing.T) {
	provider := &mockOutdoor{}
	svc := newService(provider, airquality.ServiceConfig{
		CacheTTL:        50 * time.Millisecond,
		StaleIfErrorTTL: time.Hour,
	})
	ctx := context.Background()

	fresh, err := svc.Outdoor(ctx, 31.5497, 74.3436)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	provider.setError(errors.New("upstream down"))

	stale, err := svc.Outdoor(ctx, 31.5497, 74.3436)
	require.NoError(t, err)
	assert.Same(t, fresh, stale)
}

func TestService_Outdoor_ProviderErrorWithoutCache(t *testing.T) {
	provider := &mockOutdoor{}
	provider.setError(errors.New("upstream down"))
	svc := newService(provider, airquality.ServiceConfig{})

	_, err := svc.Outdoor(context.Background(), 40.7128, -74.0060)
	require.Error(t, err)
	assert.ErrorIs(t, err, airquality.ErrProviderUnavailable)
}

func TestService_Outdoor_InvalidLocation(t *testing.T) {
	provider := &mockOutdoor{}
	svc := newService(provider, airquality.ServiceConfig{})

	for _, coords := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -180.5}} {
		_, err := svc.Outdoor(context.Background(), coords[0], coords[1])
		assert.ErrorIs(t, err, airquality.ErrInvalidLocation, "coords %v", coords)
	}
	assert.Equal(t, int32(0), provider.fetchCount.Load())
}

func TestService_Indoor(t *testing.T) {
	predictor := &mockPredictor{value: 42}
	svc := newService(&mockOutdoor{}, airquality.ServiceConfig{
		Indoor:    &mockIndoor{reading: indoorReading()},
		Predictor: predictor,
	})

	assessment, err := svc.Indoor(context.Background())
	require.NoError(t, err)

	assert.Equal(t, airquality.SourceIndoor, assessment.Reading.Source)
	assert.Equal(t, 33, assessment.Result.AQI)
	// Indoor CO is passed through unchanged.
	assert.Equal(t, 0.4, predictor.input.CO)
	require.NotNil(t, assessment.PredictedAQI)
	assert.Equal(t, 42, *assessment.PredictedAQI)
	require.NotNil(t, assessment.PredictedLevel)
	assert.Equal(t, aqi.LevelGood, *assessment.PredictedLevel)

	// Cached: no second prediction.
	_, err = svc.Indoor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), predictor.calls.Load())
	assert.True(t, svc.CacheStatus().HasIndoor)
	assert.True(t, svc.IndoorConfigured())
}

func TestService_Indoor_PredictorFailureIsNotFatal(t *testing.T) {
	svc := newService(&mockOutdoor{}, airquality.ServiceConfig{
		Indoor:    &mockIndoor{reading: indoorReading()},
		Predictor: &mockPredictor{err: errors.New("model offline")},
	})

	assessment, err := svc.Indoor(context.Background())
	require.NoError(t, err)
	assert.Nil(t, assessment.PredictedAQI)
	assert.Nil(t, assessment.PredictedLevel)
	assert.Equal(t, 33, assessment.Result.AQI)
}

func TestService_Indoor_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := newService(&mockOutdoor{}, airquality.ServiceConfig{})
		_, err := svc.Indoor(context.Background())
		assert.ErrorIs(t, err, airquality.ErrIndoorNotConfigured)
		assert.False(t, svc.IndoorConfigured())
	})

	t.Run("no data yet", func(t *testing.T) {
		svc := newService(&mockOutdoor{}, airquality.ServiceConfig{
			Indoor: &mockIndoor{err: airquality.ErrNoIndoorData},
		})
		_, err := svc.Indoor(context.Background())
		assert.ErrorIs(t, err, airquality.ErrNoIndoorData)
	})

	t.Run("source failure", func(t *testing.T) {
		svc := newService(&mockOutdoor{}, airquality.ServiceConfig{
			Indoor: &mockIndoor{err: errors.New("permission denied")},
		})
		_, err := svc.Indoor(context.Background())
		assert.ErrorIs(t, err, airquality.ErrProviderUnavailable)
	})
}

func TestService_InvalidateCache(t *testing.T) {
	provider := &mockOutdoor{}
	svc := newService(provider, airquality.ServiceConfig{CacheTTL: 10 * time.Minute})
	ctx := context.Background()

	_, err := svc.Outdoor(ctx, 40.7128, -74.0060)
	require.NoError(t, err)

	svc.InvalidateCache()

	_, err = svc.Outdoor(ctx, 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.fetchCount.Load())
}

func TestService_CacheStatus(t *testing.T) {
	provider := &mockOutdoor{}
	svc := newService(provider, airquality.ServiceConfig{CacheTTL: 5 * time.Minute})

	status := svc.CacheStatus()
	assert.Equal(t, 0, status.Entries)
	assert.False(t, status.HasIndoor)

	_, _ = svc.Outdoor(context.Background(), 40.7128, -74.0060)
	_, _ = svc.Outdoor(context.Background(), 35.6762, 139.6503)

	status = svc.CacheStatus()
	assert.Equal(t, 2, status.Entries)
	assert.Equal(t, 2, status.FreshEntries)
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "40.7128:-74.0060", airquality.LocationKey(40.7128, -74.006))
	assert.Equal(t, airquality.LocationKey(1.00001, 2.00004), airquality.LocationKey(1, 2))
}

type recordingMetrics struct {
	mu       sync.Mutex
	hits     int
	misses   int
	requests map[string]int
	failures int
}

func (m *recordingMetrics) RecordRequest(provider, operation string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requests == nil {
		m.requests = make(map[string]int)
	}
	m.requests[provider+"/"+operation]++
	if err != nil {
		m.failures++
	}
}

func (m *recordingMetrics) RecordCacheHit(string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
}

func (m *recordingMetrics) RecordCacheMiss(string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
}

func TestService_Metrics(t *testing.T) {
	metrics := &recordingMetrics{}
	svc := newService(&mockOutdoor{}, airquality.ServiceConfig{
		CacheTTL:  time.Minute,
		Indoor:    &mockIndoor{reading: indoorReading()},
		Predictor: &mockPredictor{err: errors.New("model offline")},
		Metrics:   metrics,
	})
	ctx := context.Background()

	_, err := svc.Outdoor(ctx, 40.7128, -74.0060)
	require.NoError(t, err)
	_, err = svc.Outdoor(ctx, 40.7128, -74.0060)
	require.NoError(t, err)
	_, err = svc.Indoor(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.hits)
	assert.Equal(t, 2, metrics.misses)
	assert.Equal(t, 1, metrics.requests["outdoor/fetch"])
	assert.Equal(t, 1, metrics.requests["indoor/fetch"])
	assert.Equal(t, 1, metrics.requests["predictor/predict"])
	assert.Equal(t, 1, metrics.failures)
}
