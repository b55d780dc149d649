// internal/workers/matching/calculate-match-score/models.go
package calculatematchscore

import "usahud-crm/internal/models"

type Input struct {
	Properties  []models.Property  `json:"properties"`
	Preferences models.Preferences `json:"preferences"`
	MinScore    float64            `json:"minScore,omitempty"`
}

type Output struct {
	Matches     []models.ScoredProperty `json:"matches"`
	TopScore    float64                 `json:"topScore"`
	TotalScored int                     `json:"totalScored"`
}
