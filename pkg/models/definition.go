package models

// DefaultEvent is the event shape a trigger definition suggests when a new
// instance is configured.
type DefaultEvent struct {
	Name     string    `json:"name"`
	Mappings []Mapping `json:"mappings"`
}

// MergeTagField describes one referenceable field of an object type,
// together with the synthetic value used when previewing an event.
type MergeTagField struct {
	Field        string `json:"field"`
	Label        string `json:"label"`
	PreviewValue any    `json:"preview_value"`
}

// MergeTagGroup enumerates the fields of one object type whose values may
// be referenced by merge tags for a trigger.
type MergeTagGroup struct {
	Name       string          `json:"name"`
	ObjectType string          `json:"object_type"`
	Fields     []MergeTagField `json:"fields"`
}

// TriggerDefinition is the declared, read-only metadata for one trigger
// type of an integration. Definitions are loaded fresh from the adapter on
// every read and are never persisted.
type TriggerDefinition struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	DefaultEvent DefaultEvent    `json:"default_event"`
	OptionGroups []MergeTagGroup `json:"option_groups"`
}
