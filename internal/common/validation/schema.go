// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names
const (
	SchemaCustomer         = "customer"
	SchemaConsultation     = "consultation"
	SchemaLead             = "lead"
	SchemaEmailPayload     = "email_payload"
	SchemaAgentApplication = "agent_application"
	SchemaPreferences      = "preferences"
)

const phonePattern = `^[0-9+().\-\s]{7,20}$`

var schemas = map[string]string{
	SchemaCustomer: `{
		"type": "object",
		"required": ["name", "email", "phone"],
		"properties": {
			"name":  {"type": "string", "minLength": 1},
			"email": {"type": "string", "format": "email"},
			"phone": {"type": "string", "pattern": "` + jsonEscape(phonePattern) + `"},
			"state": {"type": "string"}
		}
	}`,
	SchemaConsultation: `{
		"type": "object",
		"required": ["name", "email", "phone"],
		"properties": {
			"name":             {"type": "string", "minLength": 1},
			"email":            {"type": "string", "format": "email"},
			"phone":            {"type": "string", "pattern": "` + jsonEscape(phonePattern) + `"},
			"consultationType": {"type": "string"}
		}
	}`,
	SchemaLead: `{
		"type": "object",
		"required": ["name", "email"],
		"properties": {
			"name":     {"type": "string", "minLength": 1},
			"email":    {"type": "string", "format": "email"},
			"budget":   {"type": "number", "minimum": 0},
			"bedrooms": {"type": "integer", "minimum": 0}
		}
	}`,
	SchemaEmailPayload: `{
		"type": "object",
		"required": ["type", "to", "subject", "html"],
		"properties": {
			"type":    {"type": "string", "minLength": 1},
			"to":      {"type": "string", "format": "email"},
			"subject": {"type": "string", "minLength": 1},
			"html":    {"type": "string", "minLength": 1},
			"text":    {"type": "string"}
		}
	}`,
	SchemaAgentApplication: `{
		"type": "object",
		"required": ["first_name", "last_name", "email", "phone", "license_number", "license_state", "states_covered", "agreed_to_terms"],
		"properties": {
			"first_name":              {"type": "string", "minLength": 1},
			"last_name":               {"type": "string", "minLength": 1},
			"email":                   {"type": "string", "format": "email"},
			"phone":                   {"type": "string", "pattern": "` + jsonEscape(phonePattern) + `"},
			"license_number":          {"type": "string", "minLength": 1},
			"license_state":           {"type": "string", "minLength": 2, "maxLength": 2},
			"years_experience":        {"type": "integer", "minimum": 0},
			"states_covered":          {"type": "array", "minItems": 1, "items": {"type": "string"}},
			"referral_fee_percentage": {"type": "number", "minimum": 0, "maximum": 100},
			"agreed_to_terms":         {"const": true}
		}
	}`,
	SchemaPreferences: `{
		"type": "object",
		"properties": {
			"budget":       {"type": "number", "minimum": 0},
			"minPrice":     {"type": "number", "minimum": 0},
			"maxPrice":     {"type": "number", "minimum": 0},
			"minBedrooms":  {"type": "integer", "minimum": 0},
			"maxBedrooms":  {"type": "integer", "minimum": 0},
			"minBathrooms": {"type": "number", "minimum": 0}
		}
	}`,
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*gojsonschema.Schema{}
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into one line for logs and API responses.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

func schemaFor(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}
	src, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, err)
	}
	compiled[name] = s
	return s, nil
}

// Validate checks doc (any JSON-encodable value) against the named schema.
func Validate(name string, doc interface{}) (*ValidationResult, error) {
	s, err := schemaFor(name)
	if err != nil {
		return nil, err
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}

func jsonEscape(s string) string {
	return strings.ReplaceAll(s, `\`, `\\`)
}
