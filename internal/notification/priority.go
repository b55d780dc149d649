// internal/notification/priority.go
package notification

import (
	"strings"

	"usahud-crm/internal/models"
)

// PriceReducedMarker in a consultation's property reference forces high priority.
const PriceReducedMarker = "PRICE REDUCED"

// ClassifyPriority ranks a consultation for broker follow-up.
func ClassifyPriority(consultationType, propertyID string) models.Priority {
	if strings.Contains(propertyID, PriceReducedMarker) {
		return models.PriorityHigh
	}
	switch consultationType {
	case "bidding", "urgent":
		return models.PriorityHigh
	case "financing", "203k":
		return models.PriorityMedium
	default:
		return models.PriorityNormal
	}
}

// MeetsThreshold reports whether p is at or above the configured threshold.
// An unknown threshold is treated as high.
func MeetsThreshold(p models.Priority, threshold string) bool {
	t := models.Priority(threshold)
	switch t {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityNormal:
	default:
		t = models.PriorityHigh
	}
	return p.Rank() >= t.Rank()
}
