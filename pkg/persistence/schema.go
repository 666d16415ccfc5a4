package persistence

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the persisted document. A slug section is either
// the keyed trigger map or, for preserved unmigrated data, the legacy flat
// list.
const documentSchema = `{
	"type": "object",
	"required": ["integrations"],
	"properties": {
		"version": {"type": "integer", "minimum": 0},
		"integrations": {
			"type": "object",
			"additionalProperties": {
				"anyOf": [
					{"type": "array"},
					{
						"type": "object",
						"properties": {
							"triggers": {
								"type": ["object", "null"],
								"additionalProperties": {
									"type": "object",
									"required": ["id", "trigger", "event_name"],
									"properties": {
										"id": {"type": "string", "minLength": 1},
										"trigger": {"type": "string", "minLength": 1},
										"name": {"type": "string"},
										"event_name": {"type": "string"},
										"mappings": {
											"type": ["array", "null"],
											"items": {
												"type": "object",
												"required": ["key"],
												"properties": {
													"key": {"type": "string", "minLength": 1},
													"value": {"type": "string"}
												}
											}
										}
									}
								}
							}
						}
					}
				]
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidateDocument checks encoded document bytes against the schema.
func ValidateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("failed to validate configuration document: %w", err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("%w: %s", ErrMalformedDocument, first.String())
	}

	return nil
}
