package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tagrelay/tagrelay/pkg/models"
)

// documentWire is the on-disk form. Per-slug sections stay raw so the
// legacy flat-list shape can be detected structurally on every load.
type documentWire struct {
	Version      int64                      `json:"version"`
	Integrations map[string]json.RawMessage `json:"integrations"`
}

// legacyTrigger is the pre-migration instance shape: a flat list entry with
// the mapping list under "value" and no id of its own.
type legacyTrigger struct {
	Trigger string           `json:"trigger"`
	Name    string           `json:"name"`
	Value   []models.Mapping `json:"value"`
}

// NewTriggerID generates a stable instance id for a trigger type.
func NewTriggerID(triggerTypeID string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]

	return triggerTypeID + "_" + suffix
}

// DecodeDocument parses raw bytes into a ConfigDocument, migrating any slug
// still stored in the legacy flat-list shape. The legacy check is derived
// from the document itself on every call, which makes the migration lazy
// and idempotent: a second pass finds no legacy shape and changes nothing.
// migrated reports whether the caller should write the document back.
func DecodeDocument(raw []byte, logger *slog.Logger) (*ConfigDocument, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	doc := NewConfigDocument()
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, false, nil
	}

	var wire documentWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	doc.Version = wire.Version
	migrated := false

	for slug, section := range wire.Integrations {
		if isLegacyShape(section) {
			triggers, ok := migrateSlug(slug, section, logger)
			if !ok {
				// Malformed legacy data is preserved verbatim rather than
				// reshaped into something partial.
				doc.keepRaw(slug, section)

				continue
			}

			doc.Integrations[slug] = IntegrationConfig{Triggers: triggers}
			migrated = true

			continue
		}

		var config IntegrationConfig
		if err := json.Unmarshal(section, &config); err != nil {
			logger.Warn("Skipping undecodable integration section",
				"slug", slug, "error", err)
			doc.keepRaw(slug, section)

			continue
		}

		if config.Triggers == nil {
			config.Triggers = make(map[string]models.ConfiguredTrigger)
		}

		for id, trigger := range config.Triggers {
			// The map key is authoritative for the instance id.
			trigger.ID = id
			config.Triggers[id] = trigger
		}

		doc.Integrations[slug] = config
	}

	return doc, migrated, nil
}

// isLegacyShape reports whether a slug section is the pre-migration flat
// list. The check is purely structural: a JSON array under the slug.
func isLegacyShape(section json.RawMessage) bool {
	trimmed := bytes.TrimSpace(section)

	return len(trimmed) > 0 && trimmed[0] == '['
}

// migrateSlug reshapes one legacy flat list into the keyed trigger map:
// each entry gets a generated id, and its "value" list becomes "mappings".
// ok is false when the list cannot be decoded at all; entries without a
// trigger type are skipped individually with a warning.
func migrateSlug(slug string, section json.RawMessage, logger *slog.Logger) (map[string]models.ConfiguredTrigger, bool) {
	var entries []legacyTrigger
	if err := json.Unmarshal(section, &entries); err != nil {
		logger.Warn("Leaving legacy trigger list unmigrated",
			"slug", slug, "error", err)

		return nil, false
	}

	triggers := make(map[string]models.ConfiguredTrigger, len(entries))

	for i, entry := range entries {
		if strings.TrimSpace(entry.Trigger) == "" {
			logger.Warn("Skipping legacy trigger entry without a trigger type",
				"slug", slug, "index", i)

			continue
		}

		id := NewTriggerID(entry.Trigger)
		for {
			if _, exists := triggers[id]; !exists {
				break
			}

			id = NewTriggerID(entry.Trigger)
		}

		triggers[id] = models.ConfiguredTrigger{
			ID:            id,
			TriggerTypeID: entry.Trigger,
			Name:          entry.Name,
			// The legacy schema had no separate event name.
			EventName: entry.Name,
			Mappings:  migrateMappings(slug, i, entry.Value, logger),
		}
	}

	return triggers, true
}

// migrateMappings drops legacy mappings with a blank key. A blank key can
// never be referenced and would fail the document schema on write-back,
// which must not block the migration of everything else.
func migrateMappings(slug string, index int, mappings []models.Mapping, logger *slog.Logger) []models.Mapping {
	kept := make([]models.Mapping, 0, len(mappings))

	for _, mapping := range mappings {
		if strings.TrimSpace(mapping.Key) == "" {
			logger.Warn("Skipping legacy mapping without a key",
				"slug", slug, "index", index)

			continue
		}

		kept = append(kept, mapping)
	}

	return kept
}

func (d *ConfigDocument) keepRaw(slug string, section json.RawMessage) {
	if d.rawSlugs == nil {
		d.rawSlugs = make(map[string]json.RawMessage)
	}

	d.rawSlugs[slug] = append(json.RawMessage(nil), section...)
}

// EncodeDocument serializes the document at the given version stamp and
// checks the result against the document schema, so a shape regression can
// never reach the store.
func EncodeDocument(doc *ConfigDocument, version int64) ([]byte, error) {
	wire := documentWire{
		Version:      version,
		Integrations: make(map[string]json.RawMessage, len(doc.Integrations)+len(doc.rawSlugs)),
	}

	for slug, config := range doc.Integrations {
		section, err := json.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("failed to encode integration %s: %w", slug, err)
		}

		wire.Integrations[slug] = section
	}

	for slug, section := range doc.rawSlugs {
		if _, ok := wire.Integrations[slug]; !ok {
			wire.Integrations[slug] = section
		}
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration document: %w", err)
	}

	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}

	return raw, nil
}
