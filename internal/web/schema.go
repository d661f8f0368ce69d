// ===== internal/web/schema.go =====
package web

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema constrains POST /api/config payloads. Bounds mirror the
// config package's Validate rules so a payload that passes the schema can
// only fail on cross-field conditions.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "SimulationConfig",
  "type": "object",
  "required": ["mode", "hostCount", "seed", "spoofEvery", "spoofChance", "autoBlock", "speedMs"],
  "additionalProperties": false,
  "properties": {
    "mode": {
      "type": "string",
      "enum": ["basic", "random"]
    },
    "hostCount": {
      "type": "integer",
      "minimum": 1,
      "maximum": 254
    },
    "seed": {
      "type": "integer"
    },
    "spoofEvery": {
      "type": "integer",
      "minimum": 0
    },
    "spoofChance": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "autoBlock": {
      "type": "boolean"
    },
    "speedMs": {
      "type": "integer",
      "minimum": 0
    }
  }
}`

// validateConfigPayload validates a config payload against the schema
func validateConfigPayload(body []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("validation failed: %v", problems)
	}

	return nil
}
