// Package main provides the entrypoint for the airsight API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airsight/airsight/internal/api"
	"github.com/airsight/airsight/internal/api/middleware"
	"github.com/airsight/airsight/internal/auth"
	"github.com/airsight/airsight/internal/bootstrap"
	"github.com/airsight/airsight/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airsight-api"

	log := bootstrap.NewLogger(serviceName, Version)
	bootstrap.LoadDotEnv(log)

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting airsight API")

	port := getEnvOrDefault("APP_PORT", "8080")

	ctx := context.Background()

	telemetryConfig, err := telemetry.ConfigFromEnv(serviceName, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid telemetry configuration")
	}
	tp, err := telemetry.Init(ctx, telemetryConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryConfig.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryConfig.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	providerMetrics, err := middleware.NewProviderMetrics("api")
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	cfg, err := bootstrap.ConfigFromEnv()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	components, err := bootstrap.Build(ctx, cfg, log, providerMetrics)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		os.Exit(1)
	}
	defer components.Close()

	devAuth := os.Getenv("AUTH_DEV_MODE") == "true"

	var tokens *auth.JWTService
	if signingKey := os.Getenv("JWT_SIGNING_KEY"); signingKey != "" || devAuth {
		if signingKey == "" {
			signingKey = "local-dev-signing-key-change-in-production"
			log.Warn().Msg("using default JWT signing key - not secure for production")
		}
		tokens, err = auth.NewJWTService(auth.JWTConfig{
			SigningKey: signingKey,
			Issuer:     getEnvOrDefault("JWT_ISSUER", "https://api.airsight.app"),
			Audience:   getEnvOrDefault("JWT_AUDIENCE", "airsight-api"),
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize token validation")
			os.Exit(1)
		}
	} else {
		log.Warn().Msg("JWT_SIGNING_KEY not set - favorites endpoints disabled")
	}
	if devAuth {
		log.Warn().Msg("AUTH_DEV_MODE enabled - POST /v1/auth/dev issues tokens without credentials")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:    Version,
		BuildTime:  BuildTime,
		Logger:     log,
		RequireTLS: os.Getenv("REQUIRE_TLS") == "true",
		Metrics:    metrics,
		AirQuality: components.AirQuality,
		Geocoder:   components.Weather,
		Alerts:     components.Alerts,
		Tokens:     tokens,
		DevAuth:    devAuth,
		Favorites:  components.Favorites,
		Registry:   components.Registry,
		Checks:     components.Checks,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
