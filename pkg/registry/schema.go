// pkg/registry/schema.go
package registry

import "usahud-crm/internal/models"

// PresetRegistry is the on-disk form of the workflow preset catalog.
type PresetRegistry struct {
	Version     string                  `json:"version" yaml:"version"`
	LastUpdated string                  `json:"lastUpdated" yaml:"lastUpdated"`
	Presets     []models.WorkflowPreset `json:"presets" yaml:"presets"`
}

// Find returns the index of the preset with id, or -1.
func (r *PresetRegistry) Find(id string) int {
	for i := range r.Presets {
		if r.Presets[i].ID == id {
			return i
		}
	}
	return -1
}
