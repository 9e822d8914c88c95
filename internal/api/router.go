// Package api provides the HTTP API for airsight.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/alert"
	"github.com/airsight/airsight/internal/api/handler"
	"github.com/airsight/airsight/internal/api/middleware"
	"github.com/airsight/airsight/internal/auth"
	"github.com/airsight/airsight/internal/favorites"
	"github.com/airsight/airsight/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	// RequireTLS rejects plain HTTP traffic arriving through the proxy.
	RequireTLS bool

	// AirQuality serves outdoor and indoor assessments (required).
	AirQuality *airquality.Service

	// Geocoder backs location search. Without it only presets are served.
	Geocoder handler.Geocoder

	// Alerts is optional.
	Alerts *alert.Evaluator

	// Tokens validates bearer tokens. Without it the /me routes are not mounted.
	Tokens *auth.JWTService

	// DevAuth mounts POST /v1/auth/dev (AUTH_DEV_MODE=true).
	DevAuth bool

	// Favorites is required when Tokens is set.
	Favorites *favorites.Service

	Registry *resilience.Registry
	Checks   []handler.DependencyCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	security := middleware.DefaultSecurityConfig()
	security.RequireTLS = cfg.RequireTLS

	// RequestID runs first so every later layer can correlate; Tracing wraps
	// metrics and the access log so both see the span; Recovery sits inside
	// the log so panics are logged as 500s.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Security(security))
	r.Use(middleware.ContentTypeJSON)

	// A nil *alert.Evaluator must not become a non-nil interface.
	var evaluator handler.AlertEvaluator
	if cfg.Alerts != nil {
		evaluator = cfg.Alerts
	}

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Checks:    cfg.Checks,
		Cache:     cfg.AirQuality,
	})
	aqiHandler := handler.NewAQIHandler()
	airQualityHandler := handler.NewAirQualityHandler(cfg.AirQuality, evaluator, cfg.Logger)
	locationHandler := handler.NewLocationHandler(cfg.Geocoder, cfg.Logger)
	exportHandler := handler.NewExportHandler(cfg.AirQuality, cfg.Logger)

	readLimit := middleware.ReadLimit.PerClient()
	upstreamLimit := middleware.UpstreamLimit.PerClient()

	r.Route("/v1", func(r chi.Router) {
		// Health checks stay unthrottled for the platform.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(readLimit).Get("/status", opsHandler.SystemStatus)
		})

		// Pure computation over the breakpoint tables.
		r.Group(func(r chi.Router) {
			r.Use(readLimit)
			r.With(middleware.RequireJSON).Post("/aqi:calculate", aqiHandler.Calculate)
			r.Get("/aqi/classify", aqiHandler.Classify)
			r.Get("/aqi/levels", aqiHandler.Levels)
			r.Get("/aqi/breakpoints", aqiHandler.Breakpoints)
		})

		r.Route("/air-quality", func(r chi.Router) {
			r.Use(readLimit)
			r.Get("/outdoor", airQualityHandler.Outdoor)
			r.Get("/indoor", airQualityHandler.Indoor)
		})

		// Search and reverse lookups call the geocoder.
		r.With(readLimit).Get("/locations/presets", locationHandler.Presets)
		if cfg.Geocoder != nil {
			r.With(upstreamLimit).Get("/locations:search", locationHandler.Search)
			r.With(upstreamLimit).Get("/locations:reverse", locationHandler.Reverse)
		}

		r.With(upstreamLimit).Get("/export", exportHandler.Export)

		if cfg.Alerts != nil {
			alertHandler := handler.NewAlertHandler(cfg.Alerts)
			r.With(readLimit).Get("/alerts/recent", alertHandler.RecentAlerts)
		}

		if cfg.Tokens == nil {
			return
		}

		if cfg.DevAuth {
			authHandler := handler.NewAuthHandler(cfg.Tokens)
			r.With(middleware.TokenLimit.PerClient()).Post("/auth/dev", authHandler.DevToken)
		}

		favoritesHandler := handler.NewFavoritesHandler(cfg.Favorites)
		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Tokens))
			r.Use(middleware.ReadLimit.PerUser())
			r.Use(middleware.RequireJSON)
			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", favoritesHandler.ListFavorites)
				r.Post("/", favoritesHandler.AddFavorite)
				r.Delete("/{favoriteId}", favoritesHandler.RemoveFavorite)
			})
		})
	})

	return r
}
