// Package kafka transmits resolved events to a Kafka topic, for operators
// whose analytics ingestion reads from a broker instead of an HTTP
// endpoint.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tagrelay/tagrelay/pkg/protocol"
)

const (
	eventNameMetadataKey   = "event_name"
	integrationMetadataKey = "integration"
)

// Delivery publishes events through a watermill Kafka publisher.
type Delivery struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

// NewDelivery connects a publisher to the given brokers.
func NewDelivery(brokers []string, topic string, logger *slog.Logger) (*Delivery, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
			OTELEnabled:           true,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &Delivery{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}, nil
}

// NewDeliveryWithPublisher wraps an existing publisher. Used by tests.
func NewDeliveryWithPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *Delivery {
	return &Delivery{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

func (d *Delivery) Deliver(_ context.Context, event protocol.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(eventNameMetadataKey, event.Name)
	msg.Metadata.Set(integrationMetadataKey, event.Integration)

	if err := d.publisher.Publish(d.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", d.topic, err)
	}

	d.logger.Debug("Published event", "topic", d.topic, "event", event.Name)

	return nil
}

// Close releases the underlying publisher.
func (d *Delivery) Close() error {
	return d.publisher.Close()
}
