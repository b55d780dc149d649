// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoPresets      = errors.New("registry contains no presets")
	ErrDuplicateID    = errors.New("duplicate preset id")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidStep    = errors.New("invalid step")
	ErrPresetNotFound = errors.New("preset not found")
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadRegistry reads a preset registry. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadRegistry(path string) (*PresetRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg PresetRegistry
	if isYAML(path) {
		err = yaml.Unmarshal(data, &reg)
	} else {
		err = json.Unmarshal(data, &reg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// SaveRegistry writes reg in the format implied by the path extension,
// creating parent directories as needed.
func SaveRegistry(reg *PresetRegistry, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(reg)
	} else {
		data, err = json.MarshalIndent(reg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write registry file: %w", err)
	}
	return nil
}

// Validate checks ids are present and unique, every preset has a name and
// at least one step, and step delays are not negative.
func Validate(reg *PresetRegistry) error {
	if len(reg.Presets) == 0 {
		return ErrNoPresets
	}

	ids := make(map[string]bool, len(reg.Presets))
	for _, p := range reg.Presets {
		if p.ID == "" {
			return fmt.Errorf("%w: id", ErrMissingField)
		}
		if ids[p.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		ids[p.ID] = true

		if p.Name == "" {
			return fmt.Errorf("%w: preset %s name", ErrMissingField, p.ID)
		}
		if len(p.Steps) == 0 {
			return fmt.Errorf("%w: preset %s has no steps", ErrInvalidStep, p.ID)
		}

		stepIDs := make(map[string]bool, len(p.Steps))
		for i, s := range p.Steps {
			if s.ID == "" || s.Action == "" {
				return fmt.Errorf("%w: preset %s step %d needs id and action", ErrInvalidStep, p.ID, i)
			}
			if stepIDs[s.ID] {
				return fmt.Errorf("%w: preset %s repeats step %s", ErrInvalidStep, p.ID, s.ID)
			}
			stepIDs[s.ID] = true
			if s.Delay < 0 {
				return fmt.Errorf("%w: preset %s step %s has negative delay", ErrInvalidStep, p.ID, s.ID)
			}
		}
	}
	return nil
}
