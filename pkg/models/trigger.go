package models

// Mapping is one ordered key/value property attached to a trigger. Values
// may embed merge-tag placeholders that are resolved when the event fires.
type Mapping struct {
	Key   string `json:"key"   validate:"required"`
	Value string `json:"value"`
}

// ConfiguredTrigger is a user-created instance of a trigger definition.
// The ID is generated at creation time and never changes afterwards; the
// instance stays valid even when its trigger type has been removed from
// the integration's catalog.
type ConfiguredTrigger struct {
	ID            string    `json:"id"         validate:"required"`
	TriggerTypeID string    `json:"trigger"    validate:"required"`
	Name          string    `json:"name"`
	EventName     string    `json:"event_name" validate:"required"`
	Mappings      []Mapping `json:"mappings"`
}

// SingleItemTrigger is a trigger instance bound to one specific entity
// (a form, a product) instead of firing globally. These are enumerated by
// the integration adapter and are read-only from the engine's point of view.
type SingleItemTrigger struct {
	ConfiguredTrigger

	EntityID           string `json:"entity_id"`
	EntityTitle        string `json:"entity_title"`
	EntityEditLocation string `json:"entity_edit_location"`
}

// SingleItemGroup collects the single-item triggers of one trigger type.
type SingleItemGroup struct {
	TriggerTypeID string              `json:"trigger"`
	Name          string              `json:"name"`
	Items         []SingleItemTrigger `json:"items"`
}
