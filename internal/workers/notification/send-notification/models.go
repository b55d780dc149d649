// internal/workers/notification/send-notification/models.go
package sendnotification

import "usahud-crm/internal/models"

// Input carries the event and the record it is about. Exactly the record
// matching the event must be set.
type Input struct {
	Event        models.Event         `json:"event"`
	Customer     *models.Customer     `json:"customer,omitempty"`
	Consultation *models.Consultation `json:"consultation,omitempty"`
	Lead         *models.Lead         `json:"lead,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent" or "failed"
	MessageID      string `json:"messageId,omitempty"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"`
	Error          string `json:"error,omitempty"`
}

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)
