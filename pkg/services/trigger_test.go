package services_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagrelay/tagrelay/pkg/models"
	"github.com/tagrelay/tagrelay/pkg/persistence/file"
	"github.com/tagrelay/tagrelay/pkg/services"
)

func newTriggerService(t *testing.T) *services.Trigger {
	t.Helper()

	store := file.NewStore(t.TempDir(), slog.Default())

	return services.NewTrigger(store, slog.Default())
}

func TestTrigger_Create(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, "commerce", services.CreateTriggerRequest{
		TriggerTypeID: "order_completed",
		EventName:     "Order Completed",
		Mappings: []models.Mapping{
			{Key: "total", Value: "{order:total}"},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(created.ID, "order_completed_"))
	assert.Equal(t, "Order Completed", created.EventName)
	assert.Equal(t, "Order Completed", created.Name)

	// The new instance is the only entry under the slug.
	triggers, err := service.List(ctx, "commerce")
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, created.ID, triggers[0].ID)
}

func TestTrigger_CreateGeneratesUniqueIDs(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)
	ctx := context.Background()

	seen := make(map[string]bool)

	for range 5 {
		created, err := service.Create(ctx, "commerce", services.CreateTriggerRequest{
			TriggerTypeID: "order_completed",
			EventName:     "Order Completed",
		})
		require.NoError(t, err)
		assert.False(t, seen[created.ID])
		seen[created.ID] = true
	}

	triggers, err := service.List(ctx, "commerce")
	require.NoError(t, err)
	assert.Len(t, triggers, 5)
}

func TestTrigger_CreateValidation(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  services.CreateTriggerRequest
		want error
	}{
		{
			name: "missing trigger type",
			req:  services.CreateTriggerRequest{EventName: "Order Completed"},
			want: services.ErrTriggerTypeRequired,
		},
		{
			name: "missing event name",
			req:  services.CreateTriggerRequest{TriggerTypeID: "order_completed"},
			want: services.ErrEventNameRequired,
		},
		{
			name: "whitespace-only event name",
			req:  services.CreateTriggerRequest{TriggerTypeID: "order_completed", EventName: "   "},
			want: services.ErrEventNameRequired,
		},
		{
			name: "control characters in event name",
			req:  services.CreateTriggerRequest{TriggerTypeID: "order_completed", EventName: "Order\x00Completed"},
			want: services.ErrControlCharacters,
		},
		{
			name: "blank mapping key",
			req: services.CreateTriggerRequest{
				TriggerTypeID: "order_completed",
				EventName:     "Order Completed",
				Mappings:      []models.Mapping{{Key: " ", Value: "x"}},
			},
			want: services.ErrMappingKeyRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := service.Create(ctx, "commerce", tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, services.IsValidationError(err))

			// Failed creations never touch the store.
			triggers, listErr := service.List(ctx, "commerce")
			require.NoError(t, listErr)
			assert.Empty(t, triggers)
		})
	}
}

func TestTrigger_CreateTrimsFields(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)

	created, err := service.Create(context.Background(), "forms", services.CreateTriggerRequest{
		TriggerTypeID: "  form_submitted  ",
		EventName:     "  Form Submitted ",
		Mappings:      []models.Mapping{{Key: " email ", Value: " {submission:email} "}},
	})
	require.NoError(t, err)

	assert.Equal(t, "form_submitted", created.TriggerTypeID)
	assert.Equal(t, "Form Submitted", created.EventName)
	assert.Equal(t, "email", created.Mappings[0].Key)
	assert.Equal(t, "{submission:email}", created.Mappings[0].Value)
}

func TestTrigger_CreateAllowsDuplicateMappingKeys(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)

	created, err := service.Create(context.Background(), "forms", services.CreateTriggerRequest{
		TriggerTypeID: "form_submitted",
		EventName:     "Form Submitted",
		Mappings: []models.Mapping{
			{Key: "email", Value: "a"},
			{Key: "email", Value: "b"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, created.Mappings, 2)
}

func TestTrigger_Update(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, "commerce", services.CreateTriggerRequest{
		TriggerTypeID: "order_completed",
		EventName:     "Order Completed",
		Mappings:      []models.Mapping{{Key: "total", Value: "{order:total}"}},
	})
	require.NoError(t, err)

	newName := "Purchase"

	updated, err := service.Update(ctx, "commerce", created.ID, services.UpdateTriggerRequest{
		EventName: &newName,
		Mappings:  []models.Mapping{{Key: "currency", Value: "{order:currency}"}},
	})
	require.NoError(t, err)

	// Identity fields never change on update.
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.TriggerTypeID, updated.TriggerTypeID)
	assert.Equal(t, "Purchase", updated.EventName)
	require.Len(t, updated.Mappings, 1)
	assert.Equal(t, "currency", updated.Mappings[0].Key)
}

func TestTrigger_UpdatePartial(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, "commerce", services.CreateTriggerRequest{
		TriggerTypeID: "order_completed",
		EventName:     "Order Completed",
		Mappings:      []models.Mapping{{Key: "total", Value: "{order:total}"}},
	})
	require.NoError(t, err)

	name := "Checkout"

	updated, err := service.Update(ctx, "commerce", created.ID, services.UpdateTriggerRequest{Name: &name})
	require.NoError(t, err)

	// Untouched fields survive a partial update.
	assert.Equal(t, "Checkout", updated.Name)
	assert.Equal(t, "Order Completed", updated.EventName)
	assert.Equal(t, created.Mappings, updated.Mappings)
}

func TestTrigger_UpdateNotFound(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)

	name := "x"
	_, err := service.Update(context.Background(), "commerce", "missing", services.UpdateTriggerRequest{Name: &name})
	assert.ErrorIs(t, err, services.ErrTriggerNotFound)
}

func TestTrigger_Delete(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, "commerce", services.CreateTriggerRequest{
		TriggerTypeID: "order_completed",
		EventName:     "Order Completed",
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, "commerce", created.ID))

	triggers, err := service.List(ctx, "commerce")
	require.NoError(t, err)
	assert.Empty(t, triggers)

	// Deleting again reports not found.
	err = service.Delete(ctx, "commerce", created.ID)
	assert.ErrorIs(t, err, services.ErrTriggerNotFound)
}

func TestTrigger_InstancesOutliveDefinitions(t *testing.T) {
	t.Parallel()

	service := newTriggerService(t)
	ctx := context.Background()

	// A stored instance of a trigger type no adapter declares anymore is
	// still readable and updatable.
	created, err := service.Create(ctx, "commerce", services.CreateTriggerRequest{
		TriggerTypeID: "retired_trigger_type",
		EventName:     "Legacy Event",
	})
	require.NoError(t, err)

	got, err := service.Get(ctx, "commerce", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "retired_trigger_type", got.TriggerTypeID)
}
