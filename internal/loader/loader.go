package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sourceplane/wpmlkit/internal/model"
	"github.com/sourceplane/wpmlkit/internal/schema"
)

// Loader reads config documents and checks them against their schema
type Loader struct {
	validator *schema.Validator
}

// New creates a loader with the embedded schemas compiled
func New() (*Loader, error) {
	v, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Loader{validator: v}, nil
}

// LoadConfig loads and validates an ActionPolicy YAML file
func (l *Loader) LoadConfig(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return l.ParseConfig(data)
}

// ParseConfig validates and decodes an ActionPolicy document
func (l *Loader) ParseConfig(data []byte) (*model.Config, error) {
	if err := l.check(data, l.validator.ValidateConfig); err != nil {
		return nil, err
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config YAML: %v", model.ErrInvalidConfiguration, err)
	}
	return &cfg, nil
}

// LoadBatch loads and validates a MissionBatch YAML file
func (l *Loader) LoadBatch(path string) (*model.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	if err := l.check(data, l.validator.ValidateBatch); err != nil {
		return nil, err
	}

	var batch model.Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("%w: failed to parse batch YAML: %v", model.ErrInvalidConfiguration, err)
	}
	return &batch, nil
}

func (l *Loader) check(data []byte, validate func(interface{}) error) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: failed to parse YAML: %v", model.ErrInvalidConfiguration, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: document is empty", model.ErrInvalidConfiguration)
	}
	return validate(doc)
}
