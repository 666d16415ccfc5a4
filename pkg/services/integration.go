package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tagrelay/tagrelay/pkg/catalog"
	"github.com/tagrelay/tagrelay/pkg/models"
	"github.com/tagrelay/tagrelay/pkg/persistence"
)

// Integrations assembles the full per-integration view: declared trigger
// definitions, stored configured triggers, and the single-item triggers the
// adapter enumerates.
type Integrations struct {
	store   persistence.ConfigStore
	catalog *catalog.Catalog
	trigger *Trigger
	logger  *slog.Logger
}

// NewIntegrations creates a new integrations service.
func NewIntegrations(store persistence.ConfigStore, cat *catalog.Catalog, trigger *Trigger, logger *slog.Logger) *Integrations {
	return &Integrations{
		store:   store,
		catalog: cat,
		trigger: trigger,
		logger:  logger,
	}
}

// Get returns the assembled view for one registered integration.
func (s *Integrations) Get(ctx context.Context, slug string) (*models.Integration, error) {
	adapter, ok := s.catalog.Adapter(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %s", persistence.ErrIntegrationNotFound, slug)
	}

	configured, err := s.trigger.List(ctx, slug)
	if err != nil {
		return nil, err
	}

	groups, err := adapter.SingleItemTriggers(ctx)
	if err != nil {
		// Single-item enumeration lives in the adapter; its failure should
		// not hide the configured triggers.
		s.logger.Warn("Failed to enumerate single-item triggers", "integration", slug, "error", err)

		groups = nil
	}

	return &models.Integration{
		Slug:               slug,
		Name:               adapter.Name(),
		TriggerDefinitions: adapter.Definitions(),
		ConfiguredTriggers: configured,
		SingleItemGroups:   groups,
	}, nil
}

// List returns the assembled view for every registered integration.
func (s *Integrations) List(ctx context.Context) ([]*models.Integration, error) {
	slugs := s.catalog.Slugs()
	integrations := make([]*models.Integration, 0, len(slugs))

	for _, slug := range slugs {
		integration, err := s.Get(ctx, slug)
		if err != nil {
			return nil, err
		}

		integrations = append(integrations, integration)
	}

	return integrations, nil
}
