package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/alert"
	"github.com/airsight/airsight/internal/api/handler"
	"github.com/airsight/airsight/internal/database"
	"github.com/airsight/airsight/internal/favorites"
	"github.com/airsight/airsight/internal/indoor/firebase"
	"github.com/airsight/airsight/internal/indoor/mqtt"
	"github.com/airsight/airsight/internal/prediction"
	"github.com/airsight/airsight/internal/provider/resilience"
	"github.com/airsight/airsight/internal/weather/openweathermap"
)

// Components are the long-lived services both binaries run on.
type Components struct {
	Registry   *resilience.Registry
	Weather    *openweathermap.Client
	AirQuality *airquality.Service
	Alerts     *alert.Evaluator
	Favorites  *favorites.Service

	// Checks are readiness checks for the configured dependencies.
	Checks []handler.DependencyCheck

	logger  zerolog.Logger
	closers []func() error
}

// Build wires providers, the indoor source, alert sinks and favorites
// storage. metrics may be nil. On error everything already opened is closed.
func Build(ctx context.Context, cfg Config, logger zerolog.Logger, metrics airquality.MetricsRecorder) (*Components, error) {
	c := &Components{
		Registry: resilience.NewRegistry(),
		logger:   logger,
	}

	if err := c.build(ctx, cfg, metrics); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Components) build(ctx context.Context, cfg Config, metrics airquality.MetricsRecorder) error {
	c.Weather = openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     cfg.OWMAPIKey,
		HTTPClient: c.resilientClient(openweathermap.ProviderName),
		Logger:     c.logger,
	})

	var predictor airquality.Predictor
	if cfg.PredictorURL != "" {
		predictor = prediction.NewClient(prediction.ClientConfig{
			BaseURL:    cfg.PredictorURL,
			HTTPClient: c.resilientClient(prediction.ProviderName),
		})
		c.logger.Info().Str("url", cfg.PredictorURL).Msg("aqi predictor configured")
	}

	indoor, err := c.indoorSource(ctx, cfg)
	if err != nil {
		return err
	}

	notifier, err := c.notifier(ctx, cfg)
	if err != nil {
		return err
	}
	c.Alerts = alert.NewEvaluator(alert.EvaluatorConfig{
		Notifier: notifier,
		Logger:   c.logger,
	})

	if err := c.favorites(ctx); err != nil {
		return err
	}

	c.AirQuality = airquality.NewService(airquality.ServiceConfig{
		Outdoor:   c.Weather,
		Indoor:    indoor,
		Predictor: predictor,
		Metrics:   metrics,
		Logger:    c.logger,
	})
	return nil
}

func (c *Components) resilientClient(name string) *resilience.Client {
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = c.Registry
	return resilience.NewClient(cfg)
}

func (c *Components) indoorSource(ctx context.Context, cfg Config) (airquality.IndoorSource, error) {
	switch cfg.IndoorSource {
	case IndoorFirebase:
		source, err := firebase.New(ctx, firebase.Config{
			DatabaseURL: cfg.FirebaseDatabaseURL,
			Credentials: cfg.FirebaseCredentials,
			Ref:         cfg.FirebaseRef,
			Logger:      c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to firebase: %w", err)
		}
		c.logger.Info().Msg("indoor source: firebase realtime database")
		return source, nil

	case IndoorMQTT:
		source, err := mqtt.New(mqtt.Config{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
			Logger:   c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating mqtt source: %w", err)
		}
		if err := source.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting to mqtt broker: %w", err)
		}
		c.onClose(func() error { source.Close(); return nil })
		c.Checks = append(c.Checks, handler.DependencyCheck{
			Name: "mqtt",
			Check: func(context.Context) error {
				if !source.Connected() {
					return errors.New("not connected to broker")
				}
				return nil
			},
		})
		c.logger.Info().Str("topic", cfg.MQTTTopic).Msg("indoor source: mqtt")
		return source, nil

	default:
		c.logger.Info().Msg("no indoor source configured")
		return nil, nil
	}
}

func (c *Components) notifier(ctx context.Context, cfg Config) (alert.Notifier, error) {
	var notifiers alert.MultiNotifier
	for _, sink := range cfg.AlertSinks {
		switch sink {
		case SinkLog:
			notifiers = append(notifiers, alert.LogNotifier{Logger: c.logger})
		case SinkPubSub:
			publisher, err := alert.NewTopicPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubAlertTopic)
			if err != nil {
				return nil, err
			}
			c.onClose(publisher.Close)
			notifiers = append(notifiers, alert.NewPubSubNotifier(publisher))
		case SinkKafka:
			writer := alert.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
			c.onClose(writer.Close)
			notifiers = append(notifiers, alert.NewKafkaNotifier(writer))
		}
		c.logger.Info().Str("sink", sink).Msg("alert sink configured")
	}

	if len(notifiers) == 1 {
		return notifiers[0], nil
	}
	return notifiers, nil
}

func (c *Components) favorites(ctx context.Context) error {
	dbConfig, err := database.ConfigFromEnv()
	if err != nil {
		return err
	}

	if !dbConfig.Configured() {
		c.logger.Warn().Msg("no database configured, favorites are kept in memory")
		c.Favorites = favorites.NewService(favorites.NewInMemoryRepository())
		return nil
	}

	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	c.onClose(func() error { pool.Close(); return nil })

	repo := favorites.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	c.Favorites = favorites.NewService(repo)
	c.Checks = append(c.Checks, handler.DependencyCheck{Name: "database", Check: database.PingCheck(pool)})
	c.logger.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")
	return nil
}

func (c *Components) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Close releases connections in reverse order of opening.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.logger.Error().Err(err).Msg("failed to close component")
		}
	}
	c.closers = nil
}
