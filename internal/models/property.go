// internal/models/property.go
package models

import (
	"encoding/json"
	"strings"
)

type Property struct {
	ID             string  `json:"id"`
	CaseNumber     string  `json:"case_number"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	ZipCode        string  `json:"zip_code,omitempty"`
	County         string  `json:"county,omitempty"`
	ListPrice      float64 `json:"list_price"`
	EstimatedValue float64 `json:"estimated_value,omitempty"`
	Bedrooms       int     `json:"bedrooms"`
	Bathrooms      float64 `json:"bathrooms"`
	Sqft           int     `json:"sqft,omitempty"`
	YearBuilt      int     `json:"year_built,omitempty"`
	PropertyType   string  `json:"property_type,omitempty"`
	Status         string  `json:"status"`
	Images         Images  `json:"images,omitempty"`
	Description    string  `json:"description,omitempty"`
	ListingPeriod  string  `json:"listing_period,omitempty"`
	FHAInsurable   bool    `json:"fha_insurable,omitempty"`
	ListingSource  string  `json:"listing_source,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// Savings is estimated value minus list price, 0 when either is unknown.
func (p Property) Savings() float64 {
	if p.EstimatedValue <= 0 || p.ListPrice <= 0 {
		return 0
	}
	return p.EstimatedValue - p.ListPrice
}

// Images accepts either a JSON array of URLs or a string holding a
// JSON-encoded array, which is how older rows were written.
type Images []string

func (i *Images) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*i = list
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		*i = nil
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		// a bare URL
		*i = Images{encoded}
		return nil
	}
	*i = list
	return nil
}

// Preferences drive property matching. Zero values mean "no preference".
type Preferences struct {
	Budget       float64 `json:"budget,omitempty"`
	MinPrice     float64 `json:"minPrice,omitempty"`
	MaxPrice     float64 `json:"maxPrice,omitempty"`
	MinBedrooms  int     `json:"minBedrooms,omitempty"`
	MaxBedrooms  int     `json:"maxBedrooms,omitempty"`
	MinBathrooms float64 `json:"minBathrooms,omitempty"`
	Location     string  `json:"location,omitempty"`
	PropertyType string  `json:"propertyType,omitempty"`
}

// TargetPrice is budget, falling back to maxPrice.
func (p Preferences) TargetPrice() float64 {
	if p.Budget > 0 {
		return p.Budget
	}
	return p.MaxPrice
}

type ScoreBreakdown struct {
	Price     float64 `json:"price"`
	Bedrooms  float64 `json:"bedrooms"`
	Bathrooms float64 `json:"bathrooms"`
	Location  float64 `json:"location"`
	Type      float64 `json:"type"`
}

type ScoredProperty struct {
	Property
	MatchScore float64        `json:"matchScore"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
}

type MatchResult struct {
	Properties []ScoredProperty `json:"properties"`
	TotalFound int              `json:"totalFound"`
}

type PropertyShare struct {
	ID          string   `json:"id"`
	LeadID      string   `json:"leadId"`
	BrokerID    string   `json:"brokerId"`
	PropertyIDs []string `json:"propertyIds"`
	Channel     string   `json:"channel"`
	SharedAt    string   `json:"sharedAt"`
}

type ShareableLink struct {
	ID          string   `json:"id"`
	PropertyIDs []string `json:"propertyIds"`
	BrokerID    string   `json:"brokerId"`
	CreatedAt   string   `json:"createdAt"`
	ExpiresAt   string   `json:"expiresAt"`
	Views       int      `json:"views"`
	Link        string   `json:"link"`
}

type PropertyDescription struct {
	Headline    string   `json:"headline"`
	Description string   `json:"description"`
	Highlights  []string `json:"highlights"`
}
