package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Notifier delivers raised alerts.
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

// LogNotifier writes alerts to the log at warn level.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, alerts []Alert) error {
	for _, a := range alerts {
		n.Logger.Warn().
			Str("alert_id", a.ID).
			Str("key", a.Key).
			Str("pollutant", string(a.Pollutant)).
			Str("level", a.Level.String()).
			Msg(a.Message)
	}
	return nil
}

// MultiNotifier delivers to every notifier and joins their errors.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(ctx context.Context, alerts []Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MessagePublisher publishes one message and waits for the server ack.
type MessagePublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

// PubSubNotifier publishes each alert as a JSON message.
type PubSubNotifier struct {
	publisher MessagePublisher
}

// NewPubSubNotifier creates a notifier over a publisher.
func NewPubSubNotifier(publisher MessagePublisher) *PubSubNotifier {
	return &PubSubNotifier{publisher: publisher}
}

// Notify implements Notifier.
func (n *PubSubNotifier) Notify(ctx context.Context, alerts []Alert) error {
	for _, a := range alerts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding alert: %w", err)
		}
		attrs := map[string]string{
			"key":       a.Key,
			"pollutant": string(a.Pollutant),
			"level":     a.Level.String(),
		}
		if err := n.publisher.Publish(ctx, data, attrs); err != nil {
			return fmt.Errorf("publishing alert %s: %w", a.ID, err)
		}
	}
	return nil
}

// TopicPublisher adapts a Pub/Sub topic publisher to MessagePublisher.
type TopicPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// NewTopicPublisher opens a publisher for topic in project.
func NewTopicPublisher(ctx context.Context, projectID, topic string) (*TopicPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &TopicPublisher{client: client, publisher: client.Publisher(topic)}, nil
}

// Publish implements MessagePublisher.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	_, err := result.Get(ctx)
	return err
}

// Close flushes pending messages and closes the client.
func (p *TopicPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// MessageWriter is the part of *kafka.Writer the notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaNotifier writes alerts to a Kafka topic, keyed by alert key so one
// location's alerts stay ordered within a partition.
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaNotifier creates a notifier over writer.
func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// NewKafkaWriter builds the writer used in production.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
	}
}

// Notify implements Notifier.
func (n *KafkaNotifier) Notify(ctx context.Context, alerts []Alert) error {
	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding alert: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(a.Key),
			Value: data,
			Headers: []kafka.Header{
				{Key: "pollutant", Value: []byte(a.Pollutant)},
				{Key: "level", Value: []byte(a.Level.String())},
			},
		})
	}

	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing alerts to kafka: %w", err)
	}
	return nil
}
