// Package httpdelivery transmits resolved events to an analytics endpoint
// as JSON POST requests.
package httpdelivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tagrelay/tagrelay/pkg/protocol"
)

const (
	defaultTimeout  = 30 * time.Second
	maxErrorBodyLen = 512
)

// Delivery posts events to a fixed endpoint. No retry: the engine reports
// the first failure to the caller.
type Delivery struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	logger   *slog.Logger
}

// NewDelivery creates an HTTP delivery backend for the endpoint.
func NewDelivery(endpoint string, headers map[string]string, logger *slog.Logger) *Delivery {
	return &Delivery{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   logger,
	}
}

func (d *Delivery) Deliver(ctx context.Context, event protocol.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create delivery request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range d.headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

		return fmt.Errorf("delivery endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	d.logger.Debug("Delivered event", "event", event.Name, "status", resp.StatusCode)

	return nil
}
