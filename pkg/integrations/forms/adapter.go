// Package forms is the integration adapter for form builders: it declares
// the submission trigger type and extracts merge-tag context from a
// submission record.
package forms

import (
	"context"
	"log/slog"

	"github.com/tagrelay/tagrelay/pkg/mergetag"
	"github.com/tagrelay/tagrelay/pkg/models"
)

const (
	Slug = "forms"

	// TriggerFormSubmitted fires when any form receives a submission.
	TriggerFormSubmitted = "form_submitted"
)

// RecordSource returns merge-tag context built from the most recent real
// record for a trigger type. ok is false when no record exists yet.
type RecordSource func(ctx context.Context, triggerTypeID string) (mergetag.Context, bool, error)

// ItemSource enumerates single-item trigger instances attached to
// individual forms.
type ItemSource func(ctx context.Context) ([]models.SingleItemGroup, error)

// Adapter implements protocol.IntegrationAdapter for form sources.
type Adapter struct {
	logger  *slog.Logger
	records RecordSource
	items   ItemSource
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRecordSource wires live-record extraction into the adapter.
func WithRecordSource(source RecordSource) Option {
	return func(a *Adapter) {
		a.records = source
	}
}

// WithItemSource wires single-item trigger enumeration into the adapter.
func WithItemSource(source ItemSource) Option {
	return func(a *Adapter) {
		a.items = source
	}
}

func New(logger *slog.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{logger: logger}
	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

func (a *Adapter) Slug() string { return Slug }

func (a *Adapter) Name() string { return "Forms" }

func (a *Adapter) Definitions() []models.TriggerDefinition {
	return []models.TriggerDefinition{
		{
			ID:          TriggerFormSubmitted,
			Name:        "Form Submitted",
			Description: "Fires when any form receives a submission.",
			DefaultEvent: models.DefaultEvent{
				Name: "Form Submitted",
				Mappings: []models.Mapping{
					{Key: "form", Value: "{form:title}"},
					{Key: "email", Value: "{submission:email}"},
				},
			},
			OptionGroups: []models.MergeTagGroup{
				{
					Name:       "Form",
					ObjectType: "form",
					Fields: []models.MergeTagField{
						{Field: "id", Label: "Form ID", PreviewValue: "12"},
						{Field: "title", Label: "Form Title", PreviewValue: "Contact Us"},
					},
				},
				{
					Name:       "Submission",
					ObjectType: "submission",
					Fields: []models.MergeTagField{
						{Field: "id", Label: "Submission ID", PreviewValue: "1881"},
						{Field: "email", Label: "Submitter Email", PreviewValue: "jane@example.com"},
						{Field: "name", Label: "Submitter Name", PreviewValue: "Jane Doe"},
						{
							Field:        "all_fields",
							Label:        "All Fields",
							PreviewValue: map[string]any{"name": "Jane Doe", "message": "Hello!"},
						},
					},
				},
			},
		},
	}
}

func (a *Adapter) LiveContext(ctx context.Context, triggerTypeID string) (mergetag.Context, bool, error) {
	if a.records == nil {
		return nil, false, nil
	}

	return a.records(ctx, triggerTypeID)
}

func (a *Adapter) SingleItemTriggers(ctx context.Context) ([]models.SingleItemGroup, error) {
	if a.items == nil {
		return nil, nil
	}

	return a.items(ctx)
}
