package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/sourceplane/wpmlkit/internal/model"
)

//go:embed schemas/*.schema.yaml
var schemaFS embed.FS

// Validator handles JSON schema validation of config documents
type Validator struct {
	configSchema *jsonschema.Schema
	batchSchema  *jsonschema.Schema
}

// NewValidator compiles the embedded schemas
func NewValidator() (*Validator, error) {
	v := &Validator{}

	configSchema, err := loadSchema("config")
	if err != nil {
		return nil, fmt.Errorf("failed to load config schema: %w", err)
	}
	v.configSchema = configSchema

	batchSchema, err := loadSchema("batch")
	if err != nil {
		return nil, fmt.Errorf("failed to load batch schema: %w", err)
	}
	v.batchSchema = batchSchema

	return v, nil
}

// ValidateConfig validates a decoded ActionPolicy document
func (v *Validator) ValidateConfig(doc interface{}) error {
	return validate(v.configSchema, "config", doc)
}

// ValidateBatch validates a decoded MissionBatch document
func (v *Validator) ValidateBatch(doc interface{}) error {
	return validate(v.batchSchema, "batch", doc)
}

func validate(s *jsonschema.Schema, name string, doc interface{}) error {
	if s == nil {
		return fmt.Errorf("%s schema not loaded", name)
	}
	value, err := toJSONValue(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}
	if err := s.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}
	return nil
}

// toJSONValue converts YAML-decoded data into the value model the
// validator expects (json.Number for numbers).
func toJSONValue(doc interface{}) (interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not representable as JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return v, nil
}

// loadSchema compiles an embedded schema file (YAML)
func loadSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name + ".schema.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaURI := fmt.Sprintf("wpmlkit://schemas/%s.json", name)
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		if url == schemaURI {
			return io.NopCloser(bytes.NewReader(jsonData)), nil
		}
		return nil, fmt.Errorf("external schema reference not supported: %s", url)
	}

	schema, err := compiler.Compile(schemaURI)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}
