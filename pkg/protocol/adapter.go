// Package protocol defines the interfaces between the engine and its
// external collaborators: integration adapters and delivery backends.
package protocol

import (
	"context"

	"github.com/tagrelay/tagrelay/pkg/mergetag"
	"github.com/tagrelay/tagrelay/pkg/models"
)

// IntegrationAdapter is implemented once per source system. It declares
// which trigger types exist, extracts merge-tag context from real records,
// and enumerates the trigger instances attached to specific entities.
type IntegrationAdapter interface {
	// Slug identifies the integration in the configuration document.
	Slug() string

	// Name is the human-readable integration name.
	Name() string

	// Definitions returns the declared trigger definitions. The result is
	// rebuilt on every call and never persisted.
	Definitions() []models.TriggerDefinition

	// LiveContext builds merge-tag context from the most recent real record
	// for the trigger type. ok is false when no live record exists.
	LiveContext(ctx context.Context, triggerTypeID string) (data mergetag.Context, ok bool, err error)

	// SingleItemTriggers enumerates entity-bound trigger instances grouped
	// by trigger type.
	SingleItemTriggers(ctx context.Context) ([]models.SingleItemGroup, error)
}
