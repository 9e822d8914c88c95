package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight/airsight/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "airsight-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
	})

	require.NoError(t, err)
	assert.False(t, provider.Enabled())
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_ZeroValueShutdown(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")
		t.Setenv("APP_ENV", "")
		t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "")

		cfg, err := telemetry.ConfigFromEnv("airsight-api", "1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "airsight-api", cfg.ServiceName)
		assert.Equal(t, "1.2.3", cfg.ServiceVersion)
		assert.Equal(t, telemetry.DefaultEnvironment, cfg.Environment)
		assert.Equal(t, telemetry.DefaultOTLPEndpoint, cfg.OTLPEndpoint)
		assert.False(t, cfg.Enabled)
		assert.Zero(t, cfg.SampleRatio)
		assert.Equal(t, telemetry.DefaultExportInterval, cfg.ExportInterval)
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "true")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
		t.Setenv("APP_ENV", "production")
		t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "60000")

		cfg, err := telemetry.ConfigFromEnv("airsight-worker", "dev")
		require.NoError(t, err)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
		assert.Equal(t, 0.25, cfg.SampleRatio)
		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, time.Minute, cfg.ExportInterval)
	})

	t.Run("invalid ratio", func(t *testing.T) {
		t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "")
		for _, raw := range []string{"abc", "-0.1", "1.5"} {
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", raw)
			_, err := telemetry.ConfigFromEnv("airsight-api", "dev")
			assert.ErrorContains(t, err, "OTEL_TRACES_SAMPLER_ARG", raw)
		}
	})

	t.Run("both invalid are reported together", func(t *testing.T) {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "2")
		t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "soon")
		_, err := telemetry.ConfigFromEnv("airsight-api", "dev")
		assert.ErrorContains(t, err, "OTEL_TRACES_SAMPLER_ARG")
		assert.ErrorContains(t, err, "OTEL_METRIC_EXPORT_INTERVAL")
	})
}

func TestSampler(t *testing.T) {
	assert.Contains(t, telemetry.Sampler(telemetry.Config{}).Description(), "AlwaysOnSampler")
	assert.Contains(t, telemetry.Sampler(telemetry.Config{SampleRatio: 0.5}).Description(), "TraceIDRatioBased{0.5}")
}

func TestTracer_ReturnsGlobalTracer(t *testing.T) {
	assert.NotNil(t, telemetry.Tracer("airsight-test"))
}
