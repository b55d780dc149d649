// internal/matching/source.go
package matching

import (
	"context"

	"usahud-crm/internal/models"
)

// PropertySource answers filtered property queries. Implementations return
// available properties that pass every set preference, cheapest first.
type PropertySource interface {
	Search(ctx context.Context, prefs models.Preferences, limit int) ([]models.Property, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Property, error)
}

// StatusAvailable is the listing status matched by Search.
const StatusAvailable = "available"

// maxPrice is the upper price bound: maxPrice, falling back to budget.
func maxPrice(p models.Preferences) float64 {
	if p.MaxPrice > 0 {
		return p.MaxPrice
	}
	return p.Budget
}
