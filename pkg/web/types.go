// Package web provides HTTP request and response types for the trigger API.
package web

import "github.com/tagrelay/tagrelay/pkg/models"

// MappingPayload is one key/value property in a request body.
type MappingPayload struct {
	Key   string `json:"key"   validate:"required"`
	Value string `json:"value"`
}

// CreateTriggerRequest represents the request body for configuring a new
// trigger instance.
type CreateTriggerRequest struct {
	Trigger   string           `json:"trigger"    validate:"required"`
	Name      string           `json:"name"`
	EventName string           `json:"event_name"`
	Mappings  []MappingPayload `json:"mappings"`
}

// UpdateTriggerRequest represents the request body for updating an existing
// instance. All fields are optional to support partial updates; the id and
// trigger type are never updatable.
type UpdateTriggerRequest struct {
	Name      *string          `json:"name,omitempty"`
	EventName *string          `json:"event_name,omitempty"`
	Mappings  []MappingPayload `json:"mappings,omitempty"`
}

// EventConfigPayload is the event shape previews and test dispatches start
// from.
type EventConfigPayload struct {
	Name     string           `json:"name"     validate:"required"`
	Mappings []MappingPayload `json:"mappings"`
}

// PreviewRequest represents the request body for resolving an event config
// against synthetic preview context.
type PreviewRequest struct {
	Trigger string             `json:"trigger" validate:"required"`
	Event   EventConfigPayload `json:"event"   validate:"required"`
}

// TestDispatchRequest represents the request body for a test dispatch.
type TestDispatchRequest struct {
	Trigger string             `json:"trigger" validate:"required"`
	Event   EventConfigPayload `json:"event"   validate:"required"`
}

func toMappings(payloads []MappingPayload) []models.Mapping {
	mappings := make([]models.Mapping, 0, len(payloads))
	for _, payload := range payloads {
		mappings = append(mappings, models.Mapping{Key: payload.Key, Value: payload.Value})
	}

	return mappings
}
