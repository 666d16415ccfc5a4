// Package commerce is the integration adapter for store platforms: order
// and product purchase trigger types with merge-tag context from order
// records.
package commerce

import (
	"context"
	"log/slog"

	"github.com/tagrelay/tagrelay/pkg/mergetag"
	"github.com/tagrelay/tagrelay/pkg/models"
)

const (
	Slug = "commerce"

	// TriggerOrderCompleted fires when a purchase reaches the completed
	// state.
	TriggerOrderCompleted = "order_completed"

	// TriggerProductPurchased fires once per product in a completed order.
	TriggerProductPurchased = "product_purchased"
)

// RecordSource and ItemSource mirror the forms adapter: the real record
// extraction lives in the source system, not in this engine.
type (
	RecordSource func(ctx context.Context, triggerTypeID string) (mergetag.Context, bool, error)
	ItemSource   func(ctx context.Context) ([]models.SingleItemGroup, error)
)

type Adapter struct {
	logger  *slog.Logger
	records RecordSource
	items   ItemSource
}

type Option func(*Adapter)

func WithRecordSource(source RecordSource) Option {
	return func(a *Adapter) {
		a.records = source
	}
}

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

func (a *Adapter) Name() string { return "Commerce" }

func (a *Adapter) Definitions() []models.TriggerDefinition {
	orderGroup := models.MergeTagGroup{
		Name:       "Order",
		ObjectType: "order",
		Fields: []models.MergeTagField{
			{Field: "id", Label: "Order ID", PreviewValue: "1042"},
			{Field: "total", Label: "Order Total", PreviewValue: "99.99"},
			{Field: "currency", Label: "Currency", PreviewValue: "USD"},
			{Field: "item_count", Label: "Item Count", PreviewValue: 3},
		},
	}

	customerGroup := models.MergeTagGroup{
		Name:       "Customer",
		ObjectType: "customer",
		Fields: []models.MergeTagField{
			{Field: "email", Label: "Customer Email", PreviewValue: "jane@example.com"},
			{Field: "first_name", Label: "First Name", PreviewValue: "Jane"},
		},
	}

	productGroup := models.MergeTagGroup{
		Name:       "Product",
		ObjectType: "product",
		Fields: []models.MergeTagField{
			{Field: "id", Label: "Product ID", PreviewValue: "310"},
			{Field: "name", Label: "Product Name", PreviewValue: "Annual Plan"},
			{Field: "price", Label: "Price", PreviewValue: "49.00"},
		},
	}

	return []models.TriggerDefinition{
		{
			ID:          TriggerOrderCompleted,
			Name:        "Order Completed",
			Description: "Fires when a purchase reaches the completed state.",
			DefaultEvent: models.DefaultEvent{
				Name: "Order Completed",
				Mappings: []models.Mapping{
					{Key: "total", Value: "{order:total}"},
					{Key: "currency", Value: "{order:currency}"},
				},
			},
			OptionGroups: []models.MergeTagGroup{orderGroup, customerGroup},
		},
		{
			ID:          TriggerProductPurchased,
			Name:        "Product Purchased",
			Description: "Fires once per product in a completed order.",
			DefaultEvent: models.DefaultEvent{
				Name: "Product Purchased",
				Mappings: []models.Mapping{
					{Key: "product", Value: "{product:name}"},
					{Key: "price", Value: "{product:price}"},
				},
			},
			OptionGroups: []models.MergeTagGroup{productGroup, orderGroup, customerGroup},
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
