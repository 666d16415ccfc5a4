// Package dispatch composes the merge-tag resolver with live or synthetic
// context to produce resolved events, and forwards test dispatches to the
// delivery backend.
package dispatch

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tagrelay/tagrelay/pkg/catalog"
	"github.com/tagrelay/tagrelay/pkg/mergetag"
	"github.com/tagrelay/tagrelay/pkg/models"
	"github.com/tagrelay/tagrelay/pkg/otelhelper"
	"github.com/tagrelay/tagrelay/pkg/protocol"
)

// EventConfig is the event shape a preview or test dispatch starts from:
// the name and the unresolved mapping list.
type EventConfig struct {
	Name     string           `json:"name"`
	Mappings []models.Mapping `json:"mappings"`
}

// PreviewResult is a resolved event: the unchanged name plus every mapping
// value with its merge tags substituted.
type PreviewResult struct {
	EventName         string         `json:"event_name"`
	ProcessedMappings map[string]any `json:"processed_mappings"`
}

// Pipeline resolves trigger mappings and hands test events to the delivery
// backend. It holds no state of its own.
type Pipeline struct {
	catalog  *catalog.Catalog
	delivery protocol.Delivery
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewPipeline creates a new dispatch pipeline. A nil tracer disables
// tracing.
func NewPipeline(cat *catalog.Catalog, delivery protocol.Delivery, tracer trace.Tracer, logger *slog.Logger) *Pipeline {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("dispatch")
	}

	return &Pipeline{
		catalog:  cat,
		delivery: delivery,
		tracer:   tracer,
		logger:   logger,
	}
}

// Preview resolves the event config's mappings. When explicit context is
// nil, a synthetic context is built from the preview values of every option
// group declared for the trigger type, so known fields never show raw tags.
// A removed trigger type degrades gracefully: its mappings resolve against
// an empty context and unresolved tags pass through.
func (p *Pipeline) Preview(cfg EventConfig, slug, triggerTypeID string, explicit mergetag.Context) *PreviewResult {
	data := explicit
	if data == nil {
		data = p.catalog.PreviewContext(slug, triggerTypeID)
	}

	processed := make(map[string]any, len(cfg.Mappings))
	for _, mapping := range cfg.Mappings {
		processed[mapping.Key] = mergetag.ResolveValue(mapping.Value, data)
	}

	return &PreviewResult{
		EventName:         cfg.Name,
		ProcessedMappings: processed,
	}
}

// SendTest resolves the event against live context from the integration
// adapter, falling back to synthetic preview context when no live record
// exists, then delivers the result. Delivery failures are returned to the
// caller verbatim; there is no retry.
func (p *Pipeline) SendTest(ctx context.Context, cfg EventConfig, slug, triggerTypeID string) error {
	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "dispatch.send_test",
		attribute.String(otelhelper.IntegrationKey, slug),
		attribute.String(otelhelper.TriggerTypeKey, triggerTypeID),
		attribute.String(otelhelper.EventNameKey, cfg.Name),
	)
	defer span.End()

	result := p.Preview(cfg, slug, triggerTypeID, p.liveContext(ctx, slug, triggerTypeID))

	event := protocol.Event{
		Name:        result.EventName,
		Properties:  result.ProcessedMappings,
		Integration: p.integrationName(slug),
		TriggerName: p.triggerName(slug, triggerTypeID),
	}

	if err := p.delivery.Deliver(ctx, event); err != nil {
		otelhelper.SetError(span, err)
		p.logger.Error("Test dispatch failed", "integration", slug, "event", event.Name, "error", err)

		return err
	}

	p.logger.Info("Test dispatch delivered", "integration", slug, "event", event.Name)

	return nil
}

// liveContext asks the adapter for context built from a real record. Nil
// means the caller should fall back to synthetic preview context.
func (p *Pipeline) liveContext(ctx context.Context, slug, triggerTypeID string) mergetag.Context {
	adapter, ok := p.catalog.Adapter(slug)
	if !ok {
		return nil
	}

	data, ok, err := adapter.LiveContext(ctx, triggerTypeID)
	if err != nil {
		p.logger.Warn("Live context unavailable, using preview values",
			"integration", slug, "trigger", triggerTypeID, "error", err)

		return nil
	}

	if !ok {
		return nil
	}

	return data
}

func (p *Pipeline) integrationName(slug string) string {
	if adapter, ok := p.catalog.Adapter(slug); ok {
		return adapter.Name()
	}

	return slug
}

func (p *Pipeline) triggerName(slug, triggerTypeID string) string {
	if def, ok := p.catalog.Definition(slug, triggerTypeID); ok {
		return def.Name
	}

	return triggerTypeID
}
