// internal/api/email.go
package api

import (
	"net/http"
	"strings"

	"usahud-crm/internal/common/validation"
	"usahud-crm/internal/models"
	"usahud-crm/internal/notification"
)

var agentEmailTypes = map[string]bool{
	"verification": true,
	"approval":     true,
	"rejection":    true,
	"resend":       true,
}

// consultationAlert is the body of /api/send-notification.
type consultationAlert struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	PropertyAddress string `json:"property_address"`
	CaseNumber      string `json:"case_number"`
	State           string `json:"state"`
	Message         string `json:"message"`
}

func (s *Server) sendEmail(w http.ResponseWriter, r *http.Request) {
	s.relayEmail(w, r, nil)
}

func (s *Server) sendAgentEmail(w http.ResponseWriter, r *http.Request) {
	s.relayEmail(w, r, agentEmailTypes)
}

func (s *Server) relayEmail(w http.ResponseWriter, r *http.Request, allowedTypes map[string]bool) {
	var payload models.EmailPayload
	if err := decode(r, &payload); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Type == "" || payload.To == "" || payload.Subject == "" || payload.HTML == "" {
		writeFailure(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if allowedTypes != nil && !allowedTypes[payload.Type] {
		writeFailure(w, http.StatusBadRequest, "Invalid email type")
		return
	}
	if res, err := validation.Validate(validation.SchemaEmailPayload, payload); err != nil || !res.Valid {
		msg := "Invalid email payload"
		if res != nil {
			msg = res.Summary()
		}
		writeFailure(w, http.StatusBadRequest, msg)
		return
	}
	if s.deps.Relay == nil {
		writeFailure(w, http.StatusInternalServerError, "Email service not configured")
		return
	}

	s.logger.Info("Relaying email", map[string]interface{}{"type": payload.Type, "to": payload.To})

	id, err := s.deps.Relay.SendEmail(r.Context(), payload)
	if err != nil {
		s.logger.Error("Email relay failed", map[string]interface{}{"type": payload.Type, "error": err.Error()})
		writeFailure(w, http.StatusInternalServerError, "Failed to send email")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"messageId": id,
		"type":      payload.Type,
	})
}

// sendNotification mails a consultation alert to the broker's SMS gateway.
func (s *Server) sendNotification(w http.ResponseWriter, r *http.Request) {
	var in consultationAlert
	if err := decode(r, &in); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.CustomerEmail) == "" {
		writeFailure(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if s.deps.Relay == nil || s.deps.GatewayEmail == "" {
		writeFailure(w, http.StatusInternalServerError, "Email service not configured")
		return
	}

	consultation := models.Consultation{
		Name:    in.CustomerName,
		Email:   in.CustomerEmail,
		Phone:   in.CustomerPhone,
		State:   in.State,
		Message: in.Message,
	}
	alert, err := notification.Render(models.EventConsultationAlert,
		notification.AlertData(consultation, in.CaseNumber, in.PropertyAddress, s.deps.DashboardURL))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.deps.Relay.SendEmail(r.Context(), models.EmailPayload{
		Type:    string(models.EventConsultationAlert),
		To:      s.deps.GatewayEmail,
		Subject: alert.Subject,
		HTML:    alert.HTML,
		Text:    alert.Text,
	})
	if err != nil {
		s.logger.Error("Consultation alert failed", map[string]interface{}{"error": err.Error()})
		writeFailure(w, http.StatusInternalServerError, "Failed to send notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "id": id})
}
