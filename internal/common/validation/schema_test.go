// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Customer(t *testing.T) {
	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		wantField string
	}{
		{
			name:      "valid",
			doc:       map[string]interface{}{"name": "Jane Doe", "email": "jane@example.com", "phone": "(910) 555-1234"},
			wantValid: true,
		},
		{
			name:      "missing phone",
			doc:       map[string]interface{}{"name": "Jane Doe", "email": "jane@example.com"},
			wantField: "phone",
		},
		{
			name:      "bad email",
			doc:       map[string]interface{}{"name": "Jane", "email": "not-an-email", "phone": "9105551234"},
			wantField: "email",
		},
		{
			name:      "bad phone",
			doc:       map[string]interface{}{"name": "Jane", "email": "jane@example.com", "phone": "call me"},
			wantField: "phone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(SchemaCustomer, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
				assert.Contains(t, res.Summary(), tt.wantField)
			}
		})
	}
}

func TestValidate_AgentApplicationRequiresTerms(t *testing.T) {
	doc := map[string]interface{}{
		"first_name":      "Sam",
		"last_name":       "Agent",
		"email":           "sam@example.com",
		"phone":           "910-555-0000",
		"license_number":  "NC12345",
		"license_state":   "NC",
		"states_covered":  []string{"NC"},
		"agreed_to_terms": false,
	}
	res, err := Validate(SchemaAgentApplication, doc)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	doc["agreed_to_terms"] = true
	res, err = Validate(SchemaAgentApplication, doc)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Summary())
}

func TestValidate_EmailPayload(t *testing.T) {
	res, err := Validate(SchemaEmailPayload, map[string]interface{}{"type": "verification", "to": "a@b.co"})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	fields := map[string]bool{}
	for _, e := range res.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["subject"])
	assert.True(t, fields["html"])
}

func TestValidate_UnknownSchema(t *testing.T) {
	_, err := Validate("nope", map[string]interface{}{})
	assert.Error(t, err)
}
