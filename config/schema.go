package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema constrains the shape of a merged configuration document.
// Cross-field rules live in Config.Validate.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "duration": {
      "oneOf": [
        {"type": "string", "pattern": "^[0-9.]+(ns|us|µs|ms|s|m|h|d)([0-9.]+(ns|us|µs|ms|s|m|h))*$"},
        {"type": "integer", "minimum": 0}
      ]
    },
    "count": {"type": "integer", "minimum": 0}
  },
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "buffer": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "capacity": {"$ref": "#/definitions/count"}
      }
    },
    "producers": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "count": {"$ref": "#/definitions/count"},
        "items": {"$ref": "#/definitions/count"},
        "mode": {"enum": ["blocking", "nonblocking", "timed", "retry"]},
        "timeout": {"$ref": "#/definitions/duration"},
        "interval": {"$ref": "#/definitions/duration"},
        "rate": {"type": "number", "minimum": 0},
        "burst": {"$ref": "#/definitions/count"},
        "retry": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "max_retries": {"$ref": "#/definitions/count"},
            "initial_delay": {"$ref": "#/definitions/duration"},
            "max_delay": {"$ref": "#/definitions/duration"},
            "backoff_factor": {"type": "number", "minimum": 0}
          }
        }
      }
    },
    "consumers": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "count": {"$ref": "#/definitions/count"},
        "mode": {"enum": ["blocking", "nonblocking", "timed"]},
        "timeout": {"$ref": "#/definitions/duration"},
        "max_attempts": {"$ref": "#/definitions/count"}
      }
    },
    "run": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "timeout": {"$ref": "#/definitions/duration"},
        "sample_interval": {"$ref": "#/definitions/duration"}
      }
    },
    "expect": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "min_elapsed": {"$ref": "#/definitions/duration"},
        "max_elapsed": {"$ref": "#/definitions/duration"},
        "final_len": {"$ref": "#/definitions/count"}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "port": {"type": "integer", "minimum": 0, "maximum": 65535},
        "path": {"type": "string"}
      }
    },
    "log": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "error", "DEBUG", "INFO", "WARN", "ERROR"]},
        "format": {"enum": ["json", "text"]}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(configSchema))
	})
	return compiledSchema, schemaErr
}

// validateDocument checks a decoded configuration document against the schema.
func validateDocument(doc map[string]any) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}
