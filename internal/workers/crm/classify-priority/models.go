// internal/workers/crm/classify-priority/models.go
package classifypriority

import "usahud-crm/internal/models"

type Input struct {
	ConsultationID   string `json:"consultationId,omitempty"`
	ConsultationType string `json:"consultationType"`
	PropertyID       string `json:"propertyId,omitempty"`
}

type Output struct {
	Priority    models.Priority `json:"priority"`
	SMSEligible bool            `json:"smsEligible"`
	Cached      bool            `json:"cached"`
}

const cacheKeyPrefix = "priority:consultation:"
