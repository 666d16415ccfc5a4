package models

// Integration is the assembled view of one source integration: its declared
// trigger definitions, the globally configured instances, and the
// single-item instances grouped by trigger type.
type Integration struct {
	Slug               string              `json:"slug"`
	Name               string              `json:"name"`
	TriggerDefinitions []TriggerDefinition `json:"trigger_definitions"`
	ConfiguredTriggers []ConfiguredTrigger `json:"configured_triggers"`
	SingleItemGroups   []SingleItemGroup   `json:"single_item_groups"`
}

// TriggerCount is the number of configured triggers plus every item of
// every single-item group.
func (i *Integration) TriggerCount() int {
	count := len(i.ConfiguredTriggers)
	for _, group := range i.SingleItemGroups {
		count += len(group.Items)
	}

	return count
}
