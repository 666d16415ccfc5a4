// Package catalog holds the registered integration adapters and serves
// their declared trigger definitions.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tagrelay/tagrelay/pkg/mergetag"
	"github.com/tagrelay/tagrelay/pkg/models"
	"github.com/tagrelay/tagrelay/pkg/protocol"
)

// Catalog is the read-only trigger definition catalog. Definitions are
// re-read from the adapters on every call; nothing here is persisted.
type Catalog struct {
	logger   *slog.Logger
	adapters map[string]protocol.IntegrationAdapter
}

func NewCatalog(logger *slog.Logger) *Catalog {
	return &Catalog{
		logger:   logger,
		adapters: make(map[string]protocol.IntegrationAdapter),
	}
}

// Register adds an integration adapter. Registering the same slug twice
// replaces the earlier adapter.
func (c *Catalog) Register(adapter protocol.IntegrationAdapter) {
	c.adapters[adapter.Slug()] = adapter
}

// Adapter returns the adapter registered for slug.
func (c *Catalog) Adapter(slug string) (protocol.IntegrationAdapter, bool) {
	adapter, ok := c.adapters[slug]

	return adapter, ok
}

// Slugs returns the registered integration slugs in stable order.
func (c *Catalog) Slugs() []string {
	slugs := make([]string, 0, len(c.adapters))
	for slug := range c.adapters {
		slugs = append(slugs, slug)
	}

	sort.Strings(slugs)

	return slugs
}

// Definitions returns the trigger definitions declared by the integration.
func (c *Catalog) Definitions(slug string) ([]models.TriggerDefinition, error) {
	adapter, ok := c.adapters[slug]
	if !ok {
		return nil, fmt.Errorf("integration '%s' not registered", slug)
	}

	return adapter.Definitions(), nil
}

// Definition returns one trigger definition by type id. ok is false when
// the integration no longer declares the type; stored instances of removed
// types stay valid and resolution degrades to their stored mappings.
func (c *Catalog) Definition(slug, triggerTypeID string) (models.TriggerDefinition, bool) {
	adapter, ok := c.adapters[slug]
	if !ok {
		return models.TriggerDefinition{}, false
	}

	for _, def := range adapter.Definitions() {
		if def.ID == triggerTypeID {
			return def, true
		}
	}

	return models.TriggerDefinition{}, false
}

// DefaultEvent returns the suggested event shape for a trigger type.
func (c *Catalog) DefaultEvent(slug, triggerTypeID string) (models.DefaultEvent, bool) {
	def, ok := c.Definition(slug, triggerTypeID)
	if !ok {
		return models.DefaultEvent{}, false
	}

	return def.DefaultEvent, true
}

// OptionGroups returns the merge-tag groups declared for a trigger type.
func (c *Catalog) OptionGroups(slug, triggerTypeID string) []models.MergeTagGroup {
	def, ok := c.Definition(slug, triggerTypeID)
	if !ok {
		return nil
	}

	return def.OptionGroups
}

// PreviewContext synthesizes merge-tag context from the preview values of
// every declared option group, so previews always have something plausible
// for every referenceable tag. An unknown trigger type yields an empty
// context and every tag passes through unresolved.
func (c *Catalog) PreviewContext(slug, triggerTypeID string) mergetag.Context {
	data := mergetag.Context{}

	for _, group := range c.OptionGroups(slug, triggerTypeID) {
		fields, ok := data[group.ObjectType]
		if !ok {
			fields = make(map[string]any, len(group.Fields))
			data[group.ObjectType] = fields
		}

		for _, field := range group.Fields {
			fields[field.Field] = field.PreviewValue
		}
	}

	return data
}
