package protocol

import "context"

// Event is a fully resolved analytics event handed to a delivery backend.
type Event struct {
	Name        string         `json:"name"`
	Properties  map[string]any `json:"properties"`
	Integration string         `json:"integration"`
	TriggerName string         `json:"trigger"`
}

// Delivery transmits a resolved event to the analytics endpoint. The engine
// calls it exactly once per dispatch and never retries; failures are
// reported to the caller verbatim.
type Delivery interface {
	Deliver(ctx context.Context, event Event) error
}
