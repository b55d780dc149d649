// internal/models/communication.go
package models

// Channels
const (
	ChannelEmail     = "email"
	ChannelSMS       = "sms"
	ChannelFacebook  = "facebook"
	ChannelInstagram = "instagram"
	ChannelWhatsApp  = "whatsapp"
)

// Message is a broker-to-lead message on any channel.
type Message struct {
	LeadID      string `json:"leadId,omitempty"`
	BrokerID    string `json:"brokerId,omitempty"`
	To          string `json:"to"`
	Subject     string `json:"subject,omitempty"`
	Content     string `json:"content"`
	HTML        string `json:"html,omitempty"`
	From        string `json:"from,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
}

type SendResult struct {
	Success   bool   `json:"success"`
	Channel   string `json:"channel"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type CommunicationLog struct {
	ID       string `json:"id"`
	LeadID   string `json:"leadId"`
	BrokerID string `json:"brokerId"`
	Channel  string `json:"channel"`
	Subject  string `json:"subject,omitempty"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	SentAt   string `json:"sentAt"`
}

// Scheduled message statuses
const (
	ScheduledPending   = "pending"
	ScheduledSent      = "sent"
	ScheduledFailed    = "failed"
	ScheduledCancelled = "cancelled"
)

type ScheduledMessage struct {
	ID           string  `json:"id"`
	Channel      string  `json:"channel"`
	Message      Message `json:"message"`
	ScheduledFor string  `json:"scheduledFor"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"createdAt"`
	ProcessedAt  string  `json:"processedAt,omitempty"`
}

type EmailLog struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	SentAt    string `json:"sentAt"`
}
