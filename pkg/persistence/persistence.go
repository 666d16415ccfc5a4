package persistence

import (
	"context"
	"encoding/json"

	"github.com/tagrelay/tagrelay/pkg/models"
)

// ConfigStore persists the single shared configuration document holding
// every integration's configured triggers. Loads migrate legacy-shape data
// lazily; saves carry the version the caller loaded and fail with
// ErrConflict when another writer got there first.
type ConfigStore interface {
	Load(ctx context.Context) (*ConfigDocument, error)
	Save(ctx context.Context, doc *ConfigDocument) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// IntegrationConfig is the per-slug section of the document.
type IntegrationConfig struct {
	Triggers map[string]models.ConfiguredTrigger `json:"triggers"`
}

// ConfigDocument is the in-memory form of the persisted document. Version
// is the optimistic-concurrency stamp of the load it came from.
type ConfigDocument struct {
	Version      int64                        `json:"version"`
	Integrations map[string]IntegrationConfig `json:"integrations"`

	// rawSlugs preserves sections that could not be decoded, so a later
	// save never drops data this code version does not understand.
	rawSlugs map[string]json.RawMessage
}

// NewConfigDocument returns an empty document at version zero.
func NewConfigDocument() *ConfigDocument {
	return &ConfigDocument{
		Integrations: make(map[string]IntegrationConfig),
	}
}

// Triggers returns the configured triggers stored under slug. The returned
// map is the document's own; callers mutate it through SetTrigger and
// DeleteTrigger instead.
func (d *ConfigDocument) Triggers(slug string) map[string]models.ConfiguredTrigger {
	return d.Integrations[slug].Triggers
}

// Trigger looks up one configured trigger by id.
func (d *ConfigDocument) Trigger(slug, id string) (models.ConfiguredTrigger, bool) {
	trigger, ok := d.Integrations[slug].Triggers[id]

	return trigger, ok
}

// SetTrigger stores a configured trigger under slug, creating the slug's
// section when absent.
func (d *ConfigDocument) SetTrigger(slug string, trigger models.ConfiguredTrigger) {
	if d.Integrations == nil {
		d.Integrations = make(map[string]IntegrationConfig)
	}

	section, ok := d.Integrations[slug]
	if !ok || section.Triggers == nil {
		section.Triggers = make(map[string]models.ConfiguredTrigger)
	}

	section.Triggers[trigger.ID] = trigger
	d.Integrations[slug] = section
}

// DeleteTrigger removes a configured trigger, reporting whether it existed.
func (d *ConfigDocument) DeleteTrigger(slug, id string) bool {
	section, ok := d.Integrations[slug]
	if !ok {
		return false
	}

	if _, ok := section.Triggers[id]; !ok {
		return false
	}

	delete(section.Triggers, id)

	return true
}
