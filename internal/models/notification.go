// internal/models/notification.go
package models

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityNormal Priority = "normal"
)

// Rank orders priorities for threshold checks.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Event is a semantic notification kind.
type Event string

const (
	EventNewCustomer       Event = "new_customer"
	EventNewConsultation   Event = "new_consultation"
	EventNewLead           Event = "new_lead"
	EventAgentVerification Event = "agent_verification"
	EventAgentApproval     Event = "agent_approval"
	EventAgentRejection    Event = "agent_rejection"
	EventConsultationAlert Event = "consultation_alert"
)

// EmailPayload is the body accepted by the email endpoints.
type EmailPayload struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

type RenderedEmail struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type NotificationResult struct {
	NotificationID string `json:"notificationId"`
	Success        bool   `json:"success"`
	MessageID      string `json:"messageId,omitempty"`
	Error          string `json:"error,omitempty"`
	Status         string `json:"status"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"`
}
