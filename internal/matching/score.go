// internal/matching/score.go
package matching

import (
	"math"
	"strings"

	"usahud-crm/internal/models"
)

// Maximum points per criterion.
const (
	PricePoints    = 30
	BedroomPoints  = 20
	BathroomPoints = 15
	LocationPoints = 20
	TypePoints     = 15
	MaxScore       = 100
)

// CalculateMatchScore rates how well p fits prefs, 0 to 100. Criteria the
// buyer left unset contribute nothing.
func CalculateMatchScore(p models.Property, prefs models.Preferences) float64 {
	b := ScoreBreakdownFor(p, prefs)
	return math.Min(b.Price+b.Bedrooms+b.Bathrooms+b.Location+b.Type, MaxScore)
}

// ScoreBreakdownFor returns the per-criterion points behind a match score.
func ScoreBreakdownFor(p models.Property, prefs models.Preferences) models.ScoreBreakdown {
	var b models.ScoreBreakdown

	if target := prefs.TargetPrice(); target > 0 {
		diff := math.Abs(p.ListPrice - target)
		b.Price = math.Max(0, PricePoints-(diff/target)*PricePoints)
	}

	if prefs.MinBedrooms > 0 {
		if p.Bedrooms >= prefs.MinBedrooms {
			b.Bedrooms = BedroomPoints
		} else {
			b.Bedrooms = math.Max(0, BedroomPoints-float64(prefs.MinBedrooms-p.Bedrooms)*5)
		}
	}

	if prefs.MinBathrooms > 0 {
		if p.Bathrooms >= prefs.MinBathrooms {
			b.Bathrooms = BathroomPoints
		} else {
			b.Bathrooms = math.Max(0, BathroomPoints-(prefs.MinBathrooms-p.Bathrooms)*5)
		}
	}

	if loc := strings.ToLower(strings.TrimSpace(prefs.Location)); loc != "" {
		if strings.Contains(strings.ToLower(p.City), loc) || strings.Contains(strings.ToLower(p.State), loc) {
			b.Location = LocationPoints
		}
	}

	if prefs.PropertyType != "" && p.PropertyType == prefs.PropertyType {
		b.Type = TypePoints
	}
	return b
}
