package kafka_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagrelay/tagrelay/pkg/delivery/kafka"
	"github.com/tagrelay/tagrelay/pkg/protocol"
)

func TestDelivery_Deliver(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	messages, err := pubSub.Subscribe(context.Background(), "analytics.events")
	require.NoError(t, err)

	delivery := kafka.NewDeliveryWithPublisher(pubSub, "analytics.events", slog.Default())

	err = delivery.Deliver(context.Background(), protocol.Event{
		Name:        "Order Completed",
		Properties:  map[string]any{"total": "99.99"},
		Integration: "Commerce",
	})
	require.NoError(t, err)

	msg := <-messages
	msg.Ack()

	assert.Equal(t, "Order Completed", msg.Metadata.Get("event_name"))
	assert.Equal(t, "Commerce", msg.Metadata.Get("integration"))

	var event protocol.Event

	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, "99.99", event.Properties["total"])
}
