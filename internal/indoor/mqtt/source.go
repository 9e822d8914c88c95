// Package mqtt keeps the latest indoor reading published on an MQTT topic.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/indoor"
)

// ProviderName identifies the source on readings.
const ProviderName = "mqtt"

// Config holds configuration for the MQTT source.
type Config struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883 (required).
	Broker string

	// Topic carries the sensor JSON payload (required).
	Topic string

	// ClientID defaults to "airsight".
	ClientID string

	// QoS defaults to 1.
	QoS byte

	Logger zerolog.Logger
}

// Source subscribes to the sensor topic and serves the most recent message.
type Source struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	latest    *airquality.Reading
	connected bool
}

var _ airquality.IndoorSource = (*Source)(nil)

// New creates a source. Call Connect to start receiving.
func New(cfg Config) (*Source, error) {
	if cfg.Broker == "" || cfg.Topic == "" {
		return nil, errors.New("mqtt broker and topic are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "airsight"
	}

	qos := cfg.QoS
	if qos == 0 {
		qos = 1
	}

	s := &Source{
		topic:  cfg.Topic,
		qos:    qos,
		logger: cfg.Logger,
		now:    time.Now,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		s.setConnected(true)
		s.logger.Info().Str("broker", cfg.Broker).Msg("mqtt connected")
		// Resubscribe after reconnects with a clean session.
		token := c.Subscribe(s.topic, s.qos, s.onMessage)
		go func() {
			if token.WaitTimeout(5*time.Second) && token.Error() != nil {
				s.logger.Error().Err(token.Error()).Str("topic", s.topic).Msg("mqtt subscribe failed")
			}
		}()
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		s.logger.Warn().Err(err).Msg("mqtt connection lost")
	})

	s.client = mqtt.NewClient(opts)
	return s, nil
}

// Connect dials the broker, giving up when ctx is done.
func (s *Source) Connect(ctx context.Context) error {
	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		default:
		}
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Close unsubscribes and disconnects.
func (s *Source) Close() {
	if s.client.IsConnected() {
		s.client.Unsubscribe(s.topic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	s.setConnected(false)
}

// Connected reports whether the broker connection is up.
func (s *Source) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Latest returns the last reading received, or airquality.ErrNoIndoorData
// before the first message.
func (s *Source) Latest(_ context.Context) (*airquality.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, airquality.ErrNoIndoorData
	}
	return s.latest, nil
}

func (s *Source) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.HandlePayload(msg.Topic(), msg.Payload())
}

// HandlePayload decodes a message body and, when valid, replaces the latest
// reading. Invalid payloads are logged and dropped.
func (s *Source) HandlePayload(topic string, payload []byte) {
	p, err := indoor.Decode(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("dropping indoor message")
		return
	}

	reading, err := p.Reading(ProviderName, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("dropping indoor message")
		return
	}

	s.mu.Lock()
	s.latest = reading
	s.mu.Unlock()

	s.logger.Debug().
		Str("topic", topic).
		Float64("pm25", reading.Concentrations.PM25).
		Msg("received indoor reading")
}

func (s *Source) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
