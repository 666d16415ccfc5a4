package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tagrelay/tagrelay/pkg/models"
)

func TestIntegration_TriggerCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		integration models.Integration
		want        int
	}{
		{
			name:        "empty",
			integration: models.Integration{},
			want:        0,
		},
		{
			name: "configured only",
			integration: models.Integration{
				ConfiguredTriggers: []models.ConfiguredTrigger{{ID: "a"}, {ID: "b"}},
			},
			want: 2,
		},
		{
			name: "configured and single-item groups",
			integration: models.Integration{
				ConfiguredTriggers: []models.ConfiguredTrigger{{ID: "a"}, {ID: "b"}},
				SingleItemGroups: []models.SingleItemGroup{
					{TriggerTypeID: "product_purchased", Items: make([]models.SingleItemTrigger, 3)},
					{TriggerTypeID: "form_submitted", Items: make([]models.SingleItemTrigger, 1)},
				},
			},
			want: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.integration.TriggerCount())
		})
	}
}
