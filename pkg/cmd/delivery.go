package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tagrelay/tagrelay/pkg/delivery/httpdelivery"
	"github.com/tagrelay/tagrelay/pkg/delivery/kafka"
	"github.com/tagrelay/tagrelay/pkg/protocol"
)

// NewDelivery selects a delivery backend. Kafka brokers take precedence;
// otherwise the HTTP endpoint is used.
func NewDelivery(endpoint, kafkaBrokers, kafkaTopic string, logger *slog.Logger) (protocol.Delivery, error) {
	if kafkaBrokers != "" {
		delivery, err := kafka.NewDelivery(strings.Split(kafkaBrokers, ","), kafkaTopic, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka delivery: %w", err)
		}

		return delivery, nil
	}

	if endpoint == "" {
		return nil, fmt.Errorf("either a delivery endpoint or kafka brokers must be configured")
	}

	return httpdelivery.NewDelivery(endpoint, nil, logger), nil
}
