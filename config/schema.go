package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/grovetools/console/schema"
)

// GenerateSchema reflects the Config struct into a JSON schema document.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Extensions are free-form, so unknown top-level keys are allowed.
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "json",
	}

	s := r.Reflect(&Config{})
	s.Title = "Console Configuration"
	s.Description = "Schema for console.yml properties."
	s.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(s, "", "  ")
}

// SchemaValidator validates configuration against the schema generated
// from Config.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator generates and compiles the configuration schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	v, err := schema.NewValidator("console.json", data)
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{validator: v}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}
