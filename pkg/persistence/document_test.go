package persistence

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagrelay/tagrelay/pkg/models"
)

func modelTrigger(id, triggerTypeID string) models.ConfiguredTrigger {
	return models.ConfiguredTrigger{
		ID:            id,
		TriggerTypeID: triggerTypeID,
		EventName:     "Test Event",
	}
}

const legacyDocument = `{
	"integrations": {
		"commerce": [
			{
				"trigger": "order_completed",
				"name": "Order Completed",
				"value": [
					{"key": "total", "value": "{order:total}"},
					{"key": "currency", "value": "{order:currency}"}
				]
			},
			{
				"trigger": "order_completed",
				"name": "Order Completed Again",
				"value": []
			}
		]
	}
}`

func TestDecodeDocument_Empty(t *testing.T) {
	t.Parallel()

	doc, migrated, err := DecodeDocument(nil, slog.Default())
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Empty(t, doc.Integrations)
	assert.Equal(t, int64(0), doc.Version)
}

func TestDecodeDocument_MigratesLegacyShape(t *testing.T) {
	t.Parallel()

	doc, migrated, err := DecodeDocument([]byte(legacyDocument), slog.Default())
	require.NoError(t, err)
	assert.True(t, migrated)

	triggers := doc.Triggers("commerce")
	require.Len(t, triggers, 2)

	for id, trigger := range triggers {
		assert.Equal(t, id, trigger.ID)
		assert.True(t, strings.HasPrefix(id, "order_completed_"), "id %q should carry the trigger type", id)
		assert.Equal(t, "order_completed", trigger.TriggerTypeID)
		assert.NotEmpty(t, trigger.EventName)
	}

	var migratedFirst bool

	for _, trigger := range triggers {
		if trigger.Name == "Order Completed" {
			migratedFirst = true

			require.Len(t, trigger.Mappings, 2)
			assert.Equal(t, "total", trigger.Mappings[0].Key)
			assert.Equal(t, "{order:total}", trigger.Mappings[0].Value)
		}
	}

	assert.True(t, migratedFirst)
}

func TestDecodeDocument_MigrationIdempotent(t *testing.T) {
	t.Parallel()

	doc, migrated, err := DecodeDocument([]byte(legacyDocument), slog.Default())
	require.NoError(t, err)
	require.True(t, migrated)

	raw, err := EncodeDocument(doc, 1)
	require.NoError(t, err)

	// A second pass finds no legacy shape and changes nothing.
	again, migrated, err := DecodeDocument(raw, slog.Default())
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, doc.Triggers("commerce"), again.Triggers("commerce"))
}

func TestDecodeDocument_NewShapeIsNoOp(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"version": 3,
		"integrations": {
			"forms": {
				"triggers": {
					"form_submitted_ab12cd34": {
						"id": "form_submitted_ab12cd34",
						"trigger": "form_submitted",
						"name": "Contact",
						"event_name": "Contact",
						"mappings": [{"key": "email", "value": "{submission:email}"}]
					}
				}
			}
		}
	}`)

	doc, migrated, err := DecodeDocument(raw, slog.Default())
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, int64(3), doc.Version)

	trigger, ok := doc.Trigger("forms", "form_submitted_ab12cd34")
	require.True(t, ok)
	assert.Equal(t, "form_submitted", trigger.TriggerTypeID)
}

func TestDecodeDocument_SkipsLegacyEntryWithoutTriggerType(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"integrations": {
			"forms": [
				{"trigger": "", "name": "broken", "value": []},
				{"trigger": "form_submitted", "name": "ok", "value": []}
			]
		}
	}`)

	doc, migrated, err := DecodeDocument(raw, slog.Default())
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Len(t, doc.Triggers("forms"), 1)
}

func TestDecodeDocument_DropsLegacyMappingsWithoutKey(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"integrations": {
			"forms": [
				{
					"trigger": "form_submitted",
					"name": "Contact",
					"value": [
						{"key": "", "value": "x"},
						{"key": "email", "value": "{submission:email}"}
					]
				}
			]
		}
	}`)

	doc, migrated, err := DecodeDocument(raw, slog.Default())
	require.NoError(t, err)
	assert.True(t, migrated)

	triggers := doc.Triggers("forms")
	require.Len(t, triggers, 1)

	for _, trigger := range triggers {
		require.Len(t, trigger.Mappings, 1)
		assert.Equal(t, "email", trigger.Mappings[0].Key)
	}

	// The migrated shape must be writable, or the migration write-back
	// would dead-end every load.
	_, err = EncodeDocument(doc, 1)
	require.NoError(t, err)
}

func TestDecodeDocument_PreservesUnmigratableSection(t *testing.T) {
	t.Parallel()

	// A legacy list whose entries are not even objects cannot be reshaped;
	// it must survive an encode round-trip untouched.
	raw := []byte(`{
		"integrations": {
			"broken": ["not-an-object"],
			"forms": {"triggers": {}}
		}
	}`)

	doc, migrated, err := DecodeDocument(raw, slog.Default())
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Empty(t, doc.Triggers("broken"))

	encoded, err := EncodeDocument(doc, 1)
	require.NoError(t, err)

	var wire struct {
		Integrations map[string]json.RawMessage `json:"integrations"`
	}

	require.NoError(t, json.Unmarshal(encoded, &wire))
	assert.JSONEq(t, `["not-an-object"]`, string(wire.Integrations["broken"]))
}

func TestDecodeDocument_Malformed(t *testing.T) {
	t.Parallel()

	_, _, err := DecodeDocument([]byte(`{"integrations": 12`), slog.Default())
	assert.True(t, IsMalformedDocument(err))
}

func TestEncodeDocument_RejectsInvalidShape(t *testing.T) {
	t.Parallel()

	doc := NewConfigDocument()
	doc.SetTrigger("forms", modelTrigger("", "form_submitted"))

	_, err := EncodeDocument(doc, 1)
	assert.Error(t, err)
}

func TestNewTriggerID(t *testing.T) {
	t.Parallel()

	id := NewTriggerID("order_completed")
	assert.True(t, strings.HasPrefix(id, "order_completed_"))
	assert.Greater(t, len(id), len("order_completed_"))

	// Suffixes must differ between calls.
	assert.NotEqual(t, id, NewTriggerID("order_completed"))
}
