// Package bootstrap builds the components shared by cmd/api and cmd/worker
// from the environment.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Indoor sources.
const (
	IndoorNone     = ""
	IndoorFirebase = "firebase"
	IndoorMQTT     = "mqtt"
)

// Alert sinks.
const (
	SinkLog    = "log"
	SinkPubSub = "pubsub"
	SinkKafka  = "kafka"
)

// ErrInvalidConfig wraps every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the provider, alert and indoor settings.
type Config struct {
	OWMAPIKey    string
	PredictorURL string

	IndoorSource        string
	FirebaseDatabaseURL string
	FirebaseCredentials string
	FirebaseRef         string
	MQTTBroker          string
	MQTTTopic           string
	MQTTClientID        string

	AlertSinks       []string
	PubSubProjectID  string
	PubSubAlertTopic string
	KafkaBrokers     []string
	KafkaAlertTopic  string
}

// LoadDotEnv loads .env into the environment when present. Variables that
// are already set win.
func LoadDotEnv(logger zerolog.Logger) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Err(err).Msg("failed to load .env file")
		}
		return
	}
	logger.Debug().Msg("loaded .env file")
}

// NewLogger builds the root logger. LOG_LEVEL sets the minimum level
// (default: info).
func NewLogger(service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// ConfigFromEnv reads and validates the provider, indoor and alert settings.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		OWMAPIKey:           os.Getenv("OWM_API_KEY"),
		PredictorURL:        os.Getenv("PREDICTOR_URL"),
		IndoorSource:        strings.ToLower(strings.TrimSpace(os.Getenv("INDOOR_SOURCE"))),
		FirebaseDatabaseURL: os.Getenv("FIREBASE_DATABASE_URL"),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS"),
		FirebaseRef:         os.Getenv("FIREBASE_REF"),
		MQTTBroker:          os.Getenv("MQTT_BROKER"),
		MQTTTopic:           os.Getenv("MQTT_TOPIC"),
		MQTTClientID:        os.Getenv("MQTT_CLIENT_ID"),
		AlertSinks:          splitList(strings.ToLower(os.Getenv("ALERT_SINK"))),
		PubSubProjectID:     os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubAlertTopic:    os.Getenv("PUBSUB_ALERT_TOPIC"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaAlertTopic:     os.Getenv("KAFKA_ALERT_TOPIC"),
	}
	if len(cfg.AlertSinks) == 0 {
		cfg.AlertSinks = []string{SinkLog}
	}

	return cfg, cfg.Validate()
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	missing := func(name string) {
		errs = append(errs, fmt.Errorf("%s is required", name))
	}

	if c.OWMAPIKey == "" {
		missing("OWM_API_KEY")
	}

	switch c.IndoorSource {
	case IndoorNone:
	case IndoorFirebase:
		if c.FirebaseDatabaseURL == "" {
			missing("FIREBASE_DATABASE_URL")
		}
	case IndoorMQTT:
		if c.MQTTBroker == "" {
			missing("MQTT_BROKER")
		}
		if c.MQTTTopic == "" {
			missing("MQTT_TOPIC")
		}
	default:
		errs = append(errs, fmt.Errorf("unknown INDOOR_SOURCE %q", c.IndoorSource))
	}

	for _, sink := range c.AlertSinks {
		switch sink {
		case SinkLog:
		case SinkPubSub:
			if c.PubSubProjectID == "" {
				missing("PUBSUB_PROJECT_ID")
			}
			if c.PubSubAlertTopic == "" {
				missing("PUBSUB_ALERT_TOPIC")
			}
		case SinkKafka:
			if len(c.KafkaBrokers) == 0 {
				missing("KAFKA_BROKERS")
			}
			if c.KafkaAlertTopic == "" {
				missing("KAFKA_ALERT_TOPIC")
			}
		default:
			errs = append(errs, fmt.Errorf("unknown ALERT_SINK %q", sink))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
