// internal/workers/hud/generate-property-description/models.go
package generatepropertydescription

import "usahud-crm/internal/models"

type Input struct {
	Property models.Property `json:"property"`
}

type Output struct {
	Headline       string   `json:"headline"`
	Description    string   `json:"description"`
	Highlights     []string `json:"highlights"`
	Source         string   `json:"source"`
	FallbackReason string   `json:"fallbackReason,omitempty"`
}

const (
	SourceAI       = "ai"
	SourceTemplate = "template"
)
