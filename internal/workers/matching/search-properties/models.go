// internal/workers/matching/search-properties/models.go
package searchproperties

import "usahud-crm/internal/models"

// Input either looks properties up by id or searches by preferences.
type Input struct {
	Preferences models.Preferences `json:"preferences"`
	PropertyIDs []string           `json:"propertyIds,omitempty"`
	Limit       int                `json:"limit,omitempty"`
}

type Output struct {
	Properties []models.ScoredProperty `json:"properties"`
	TotalFound int                     `json:"totalFound"`
	QueryType  string                  `json:"queryType"`
}

const (
	QueryTypeSearch = "search"
	QueryTypeByIDs  = "by_ids"
)
