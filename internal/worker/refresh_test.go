package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/alert"
	"github.com/airsight/airsight/internal/aqi"
	"github.com/airsight/airsight/internal/favorites"
	"github.com/airsight/airsight/internal/worker"
)

// fakeService returns unhealthy PM2.5 everywhere except at failing keys.
type fakeService struct {
	mu        sync.Mutex
	calls     map[string]int
	failing   map[string]bool
	indoorErr error
}

func newFakeService() *fakeService {
	return &fakeService{calls: make(map[string]int), failing: make(map[string]bool)}
}

func (s *fakeService) Outdoor(_ context.Context, lat, lon float64) (*airquality.Assessment, error) {
	key := airquality.LocationKey(lat, lon)

	s.mu.Lock()
	s.calls[key]++
	failing := s.failing[key]
	s.mu.Unlock()

	if failing {
		return nil, airquality.ErrProviderUnavailable
	}
	return airquality.Assess(&airquality.Reading{
		Source:         airquality.SourceOutdoor,
		Lat:            lat,
		Lon:            lon,
		Concentrations: aqi.Concentrations{PM25: 40},
	}), nil
}

func (s *fakeService) Indoor(context.Context) (*airquality.Assessment, error) {
	if s.indoorErr != nil {
		return nil, s.indoorErr
	}
	return airquality.Assess(&airquality.Reading{
		Source:         airquality.SourceIndoor,
		Concentrations: aqi.Concentrations{PM25: 60, CO: 12},
	}), nil
}

func (s *fakeService) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func testTargets() []worker.Target {
	return []worker.Target{
		{Name: "A", Lat: 1, Lon: 1},
		{Name: "B", Lat: 2, Lon: 2},
		{Name: "C", Lat: 3, Lon: 3},
	}
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.IncludeFavorites)
	assert.True(t, cfg.IncludeIndoor)
	assert.Len(t, cfg.Targets, len(airquality.PresetLocations))
}

func TestDefaultTargets(t *testing.T) {
	targets := worker.DefaultTargets()

	require.Len(t, targets, 6)
	assert.Contains(t, targets, worker.Target{
		Name: airquality.DefaultLocation.Name,
		Lat:  airquality.DefaultLocation.Lat,
		Lon:  airquality.DefaultLocation.Lon,
	})
}

func TestRefreshJob_Run(t *testing.T) {
	service := newFakeService()
	evaluator := alert.NewEvaluator(alert.EvaluatorConfig{Logger: zerolog.Nop()})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:       testTargets(),
			Concurrency:   2,
			Timeout:       time.Second,
			IncludeIndoor: true,
		},
		Logger:  zerolog.Nop(),
		Service: service,
		Alerts:  evaluator,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 3, result.TotalTargets)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.True(t, result.Indoor)
	// One PM2.5 alert per outdoor target, PM2.5 and CO indoors.
	assert.Equal(t, 5, result.AlertsRaised)
	assert.Equal(t, 3, service.totalCalls())

	recent := evaluator.Recent(10)
	keys := make([]string, 0, len(recent))
	for _, a := range recent {
		keys = append(keys, a.Key)
	}
	assert.Contains(t, keys, airquality.IndoorKey)
	assert.Contains(t, keys, airquality.LocationKey(2, 2))

	// Cooldown suppresses the second run's alerts.
	result = job.Run(context.Background())
	assert.Equal(t, 0, result.AlertsRaised)
}

func TestRefreshJob_Run_CollectsFailures(t *testing.T) {
	service := newFakeService()
	service.failing[airquality.LocationKey(2, 2)] = true

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: testTargets(), Concurrency: 3},
		Logger:  zerolog.Nop(),
		Service: service,
	})

	result := job.Run(context.Background())

	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "B", result.Errors[0].Target.Name)
	assert.Contains(t, result.Errors[0].Error, "unavailable")
	assert.Zero(t, result.AlertsRaised, "no evaluator configured")
}

func TestRefreshJob_Run_IncludesFavorites(t *testing.T) {
	ctx := context.Background()
	repo := favorites.NewInMemoryRepository()
	require.NoError(t, repo.Create(ctx, &favorites.Favorite{ID: "fav_1", UserID: "usr_a", Name: "Office", Lat: 10, Lon: 10}))
	// Same location as target A, refreshed once.
	require.NoError(t, repo.Create(ctx, &favorites.Favorite{ID: "fav_2", UserID: "usr_b", Name: "Home", Lat: 1, Lon: 1}))

	service := newFakeService()
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Targets:          testTargets(),
			IncludeFavorites: true,
		},
		Logger:    zerolog.Nop(),
		Service:   service,
		Favorites: repo,
	})

	result := job.Run(ctx)

	assert.Equal(t, 4, result.TotalTargets)
	assert.Equal(t, 4, result.Successful)
	assert.Equal(t, 1, service.calls[airquality.LocationKey(1, 1)])
	assert.Equal(t, 1, service.calls[airquality.LocationKey(10, 10)])
}

func TestRefreshJob_Run_IndoorUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not configured", airquality.ErrIndoorNotConfigured},
		{"no data yet", airquality.ErrNoIndoorData},
		{"source down", airquality.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newFakeService()
			service.indoorErr = tt.err

			job := worker.NewRefreshJob(worker.RefreshJobConfig{
				Config:  worker.RefreshConfig{Targets: testTargets(), IncludeIndoor: true},
				Logger:  zerolog.Nop(),
				Service: service,
			})

			result := job.Run(context.Background())
			assert.False(t, result.Indoor)
			assert.Equal(t, 3, result.Successful)
		})
	}
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	service := newFakeService()
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: testTargets(), Concurrency: 1},
		Logger:  zerolog.Nop(),
		Service: service,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	assert.Equal(t, 3, result.Failed)
	assert.Zero(t, service.totalCalls())
}

func TestRefreshJob_Metrics(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: testTargets(), IncludeIndoor: true},
		Logger:  zerolog.Nop(),
		Service: newFakeService(),
		Alerts:  alert.NewEvaluator(alert.EvaluatorConfig{Logger: zerolog.Nop()}),
	})

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalRuns)
	assert.Equal(t, int64(6), metrics.SuccessfulRefresh)
	assert.Equal(t, int64(2), metrics.IndoorRefreshes)
	assert.Equal(t, int64(5), metrics.AlertsRaised)
	assert.NotZero(t, metrics.LastRefreshAt)

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(2), snapshot["total_runs"])
	assert.Contains(t, snapshot, "last_refresh_duration")
}

func TestDispatcher_Dispatch(t *testing.T) {
	service := newFakeService()
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: testTargets()},
		Logger:  zerolog.Nop(),
		Service: service,
	})
	dispatcher := worker.NewDispatcher(job, zerolog.Nop())
	ctx := context.Background()

	jobType, err := dispatcher.Dispatch(ctx, []byte(`{"job_type":"provider_refresh"}`))
	require.NoError(t, err)
	assert.Equal(t, worker.JobProviderRefresh, jobType)
	assert.Equal(t, 3, service.totalCalls())

	jobType, err = dispatcher.Dispatch(ctx, []byte(`{"job_type":"health_check"}`))
	require.NoError(t, err)
	assert.Equal(t, worker.JobHealthCheck, jobType)
	assert.Equal(t, 1, service.calls[airquality.LocationKey(airquality.DefaultLocation.Lat, airquality.DefaultLocation.Lon)])

	_, err = dispatcher.Dispatch(ctx, []byte(`{"job_type":"reindex"}`))
	assert.ErrorIs(t, err, worker.ErrUnknownJobType)

	_, err = dispatcher.Dispatch(ctx, []byte(`not json`))
	assert.ErrorIs(t, err, worker.ErrMalformedMessage)
}

func TestDispatcher_Dispatch_Failures(t *testing.T) {
	service := newFakeService()
	for _, target := range testTargets()[1:] {
		service.failing[target.Key()] = true
	}
	service.failing[airquality.LocationKey(airquality.DefaultLocation.Lat, airquality.DefaultLocation.Lon)] = true

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.RefreshConfig{Targets: testTargets()},
		Logger:  zerolog.Nop(),
		Service: service,
	})
	dispatcher := worker.NewDispatcher(job, zerolog.Nop())

	_, err := dispatcher.Dispatch(context.Background(), []byte(`{"job_type":"provider_refresh"}`))
	assert.ErrorContains(t, err, "too many refresh failures: 2/3")

	_, err = dispatcher.Dispatch(context.Background(), []byte(`{"job_type":"health_check"}`))
	assert.ErrorContains(t, err, "health check failed")
}

type countingRunner struct {
	mu   sync.Mutex
	runs int
}

func (r *countingRunner) Run(context.Context) *worker.RefreshResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	return &worker.RefreshResult{}
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func TestScheduler(t *testing.T) {
	runner := &countingRunner{}
	scheduler, err := worker.NewScheduler(context.Background(), "@every 1s", runner, zerolog.Nop())
	require.NoError(t, err)

	scheduler.Start()
	assert.Eventually(t, func() bool { return runner.count() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scheduler.Stop(ctx)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	_, err := worker.NewScheduler(context.Background(), "every five minutes", &countingRunner{}, zerolog.Nop())
	assert.Error(t, err)
}
