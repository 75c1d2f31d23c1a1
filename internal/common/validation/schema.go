// Package validation checks request payloads against JSON schemas before they
// reach the service layer.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	stderrors "rentdesk/internal/common/errors"
)

// Schema names registered with the validator.
const (
	SchemaApplicationCreate = "application_create"
	SchemaApplicationStatus = "application_status"
	SchemaManagerProfile    = "manager_profile"
	SchemaTenantProfile     = "tenant_profile"
)

var schemas = map[string]map[string]interface{}{
	SchemaApplicationCreate: {
		"type": "object",
		"properties": map[string]interface{}{
			"propertyId":      map[string]interface{}{"type": "string", "minLength": 1},
			"name":            map[string]interface{}{"type": "string", "minLength": 1},
			"email":           map[string]interface{}{"type": "string", "format": "email"},
			"phoneNumber":     map[string]interface{}{"type": "string"},
			"message":         map[string]interface{}{"type": "string"},
			"applicationDate": map[string]interface{}{"type": "string"},
		},
		"required":             []interface{}{"propertyId", "name", "email"},
		"additionalProperties": false,
	},
	SchemaApplicationStatus: {
		"type": "object",
		"properties": map[string]interface{}{
			// status is an open-ended tag; only Approved carries extra
			// lifecycle behavior downstream.
			"status": map[string]interface{}{"type": "string", "minLength": 1},
		},
		"required":             []interface{}{"status"},
		"additionalProperties": false,
	},
	SchemaManagerProfile: {
		"type": "object",
		"properties": map[string]interface{}{
			"name":        map[string]interface{}{"type": "string", "minLength": 1},
			"email":       map[string]interface{}{"type": "string", "format": "email"},
			"phoneNumber": map[string]interface{}{"type": "string"},
		},
		"additionalProperties": false,
	},
	SchemaTenantProfile: {
		"type": "object",
		"properties": map[string]interface{}{
			"name":        map[string]interface{}{"type": "string", "minLength": 1},
			"email":       map[string]interface{}{"type": "string", "format": "email"},
			"phoneNumber": map[string]interface{}{"type": "string"},
		},
		"additionalProperties": false,
	},
}

// Validate checks the payload against the named schema. The returned error is
// a VALIDATION_FAILED standard error carrying the first failing field.
func Validate(schemaName string, payload map[string]interface{}) error {
	schemaMap, exists := schemas[schemaName]
	if !exists {
		return fmt.Errorf("unknown schema: %s", schemaName)
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		first := result.Errors()[0]
		field := first.Field()
		if field == "(root)" {
			if prop, ok := first.Details()["property"].(string); ok {
				field = prop
			}
		}
		return stderrors.NewValidationFailedError(field, first.Description())
	}

	return nil
}
