// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usahud-crm/internal/models"
)

func samplePreset() models.WorkflowPreset {
	return models.WorkflowPreset{
		ID:   "open_house",
		Name: "Open House",
		Steps: []models.WorkflowStep{
			{ID: "invite", Action: "send_welcome_email", Title: "Invite", Channel: "email"},
			{ID: "remind", Action: "send_sms_reminder", Title: "Remind", Channel: "sms", Delay: 24},
		},
	}
}

func TestLoadRegistry_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1.0.0"
presets:
  - id: open_house
    name: Open House
    steps:
      - id: invite
        action: send_welcome_email
        title: Invite
        delay: 0
      - id: remind
        action: send_sms_reminder
        title: Remind
        channel: sms
        delay: 24
        aiEnabled: true
`), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Presets, 1)
	assert.Equal(t, "1.0.0", reg.Version)
	assert.Equal(t, 24.0, reg.Presets[0].Steps[1].Delay)
	assert.True(t, reg.Presets[0].Steps[1].AIEnabled)
	assert.NoError(t, Validate(reg))
}

func TestSaveAndLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "presets.json")
	reg := &PresetRegistry{Version: "1.0.0", Presets: []models.WorkflowPreset{samplePreset()}}

	require.NoError(t, SaveRegistry(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Presets, loaded.Presets)
	assert.Equal(t, 0, loaded.Find("open_house"))
	assert.Equal(t, -1, loaded.Find("missing"))
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"presets": [`), 0o644))
	_, err = LoadRegistry(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *PresetRegistry)
		wantErr error
	}{
		{name: "valid", mutate: func(r *PresetRegistry) {}},
		{name: "empty", mutate: func(r *PresetRegistry) { r.Presets = nil }, wantErr: ErrNoPresets},
		{name: "missing id", mutate: func(r *PresetRegistry) { r.Presets[0].ID = "" }, wantErr: ErrMissingField},
		{name: "missing name", mutate: func(r *PresetRegistry) { r.Presets[0].Name = "" }, wantErr: ErrMissingField},
		{name: "duplicate id", mutate: func(r *PresetRegistry) { r.Presets = append(r.Presets, samplePreset()) }, wantErr: ErrDuplicateID},
		{name: "no steps", mutate: func(r *PresetRegistry) { r.Presets[0].Steps = nil }, wantErr: ErrInvalidStep},
		{name: "repeated step", mutate: func(r *PresetRegistry) { r.Presets[0].Steps[1].ID = "invite" }, wantErr: ErrInvalidStep},
		{name: "negative delay", mutate: func(r *PresetRegistry) { r.Presets[0].Steps[1].Delay = -1 }, wantErr: ErrInvalidStep},
		{name: "step without action", mutate: func(r *PresetRegistry) { r.Presets[0].Steps[0].Action = "" }, wantErr: ErrInvalidStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &PresetRegistry{Presets: []models.WorkflowPreset{samplePreset()}}
			tt.mutate(reg)

			err := Validate(reg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
