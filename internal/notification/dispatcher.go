// internal/notification/dispatcher.go
package notification

import (
	"context"
	"html"
	"strings"
	"time"

	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/metrics"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

// Options configures recipients and links for a Dispatcher.
type Options struct {
	AdminEmail string
	BaseURL    string

	SMSEnabled   bool
	SMSThreshold string
	BrokerPhone  string
	// GatewayEmail is a carrier email-to-SMS address for consultation alerts.
	GatewayEmail string
}

// Dispatcher renders event emails, sends them through one transport and
// keeps an email log. It never retries.
type Dispatcher struct {
	email  EmailSender
	sms    SMSSender
	log    *store.Collection[models.EmailLog]
	opts   Options
	logger logger.Logger
	now    func() time.Time
	newID  store.IDFunc
}

// NewDispatcher wires a dispatcher. sms and emailLog may be nil.
func NewDispatcher(email EmailSender, sms SMSSender, emailLog *store.Collection[models.EmailLog], opts Options, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		email:  email,
		sms:    sms,
		log:    emailLog,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "notification"}),
		now:    time.Now,
		newID:  store.NewID,
	}
}

// WithClock overrides time and id sources.
func (d *Dispatcher) WithClock(now func() time.Time, newID store.IDFunc) *Dispatcher {
	d.now = now
	d.newID = newID
	return d
}

// NotifyNewCustomer alerts the admin about a registration.
func (d *Dispatcher) NotifyNewCustomer(ctx context.Context, c models.Customer) models.NotificationResult {
	return d.Notify(ctx, models.EventNewCustomer, d.opts.AdminEmail, CustomerData(c, d.now()))
}

// NotifyLead alerts the admin about a captured lead.
func (d *Dispatcher) NotifyLead(ctx context.Context, l models.Lead) models.NotificationResult {
	return d.Notify(ctx, models.EventNewLead, d.opts.AdminEmail, LeadData(l, d.now()))
}

// NotifyConsultation alerts the admin, then texts the broker when the
// classified priority meets the SMS threshold.
func (d *Dispatcher) NotifyConsultation(ctx context.Context, c models.Consultation) models.NotificationResult {
	priority := ClassifyPriority(c.ConsultationType, c.PropertyID)
	result := d.Notify(ctx, models.EventNewConsultation, d.opts.AdminEmail, ConsultationData(c, priority, d.now()))

	if !d.opts.SMSEnabled || !MeetsThreshold(priority, d.opts.SMSThreshold) {
		return result
	}

	alert, err := Render(models.EventConsultationAlert, AlertData(c, "", c.PropertyID, d.dashboardURL()))
	if err != nil {
		return result
	}

	if d.sms != nil && d.opts.BrokerPhone != "" {
		if _, err := d.sms.SendSMS(ctx, d.opts.BrokerPhone, alert.Text); err != nil {
			metrics.NotificationsSent.WithLabelValues(string(models.EventConsultationAlert), models.ChannelSMS, "failed").Inc()
			d.logger.Warn("Broker SMS failed", map[string]interface{}{"consultationId": c.ID, "error": err.Error()})
		} else {
			metrics.NotificationsSent.WithLabelValues(string(models.EventConsultationAlert), models.ChannelSMS, "sent").Inc()
			result.SMSSent = true
		}
	}

	if d.opts.GatewayEmail != "" {
		if alert.HTML == "" {
			alert.HTML = "<pre>" + html.EscapeString(alert.Text) + "</pre>"
		}
		gw := d.send(ctx, models.EventConsultationAlert, d.opts.GatewayEmail, alert)
		result.SMSSent = result.SMSSent || gw.Success
	}
	return result
}

// SendAgentVerification mails the applicant their 24h verification link.
func (d *Dispatcher) SendAgentVerification(ctx context.Context, app models.AgentApplication, token string) models.NotificationResult {
	url := strings.TrimRight(d.opts.BaseURL, "/") + "/agent/verify-email?token=" + token
	return d.Notify(ctx, models.EventAgentVerification, app.Email, VerificationData(app, url))
}

// SendAgentApproval mails the new agent their credentials.
func (d *Dispatcher) SendAgentApproval(ctx context.Context, app models.AgentApplication, temporaryPassword string) models.NotificationResult {
	return d.Notify(ctx, models.EventAgentApproval, app.Email, ApprovalData(app, temporaryPassword, d.dashboardURL()))
}

// SendAgentRejection mails the applicant the decision and reason.
func (d *Dispatcher) SendAgentRejection(ctx context.Context, app models.AgentApplication, reason string) models.NotificationResult {
	return d.Notify(ctx, models.EventAgentRejection, app.Email, RejectionData(app, reason))
}

// Notify renders event with data and sends it to the given recipient.
func (d *Dispatcher) Notify(ctx context.Context, event models.Event, to string, data map[string]interface{}) models.NotificationResult {
	rendered, err := Render(event, data)
	if err != nil {
		return d.failed(err.Error())
	}
	return d.send(ctx, event, to, rendered)
}

// SendRaw sends a caller-rendered email.
func (d *Dispatcher) SendRaw(ctx context.Context, payload models.EmailPayload) models.NotificationResult {
	return d.send(ctx, models.Event(payload.Type), payload.To, models.RenderedEmail{
		Subject: payload.Subject,
		HTML:    payload.HTML,
		Text:    payload.Text,
	})
}

// EmailLogs returns the email log, newest last.
func (d *Dispatcher) EmailLogs(ctx context.Context) ([]models.EmailLog, error) {
	if d.log == nil {
		return []models.EmailLog{}, nil
	}
	return d.log.Load(ctx)
}

func (d *Dispatcher) send(ctx context.Context, event models.Event, to string, email models.RenderedEmail) models.NotificationResult {
	result := models.NotificationResult{
		NotificationID: d.newID("email"),
		SentAt:         models.Timestamp(d.now()),
	}

	if d.email == nil {
		result.Status = "failed"
		result.Error = "Email service not configured"
	} else if to == "" {
		result.Status = "failed"
		result.Error = "recipient address required"
	} else {
		msgID, err := d.email.SendEmail(ctx, models.EmailPayload{
			Type:    string(event),
			To:      to,
			Subject: email.Subject,
			HTML:    email.HTML,
			Text:    email.Text,
		})
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
		} else {
			result.Success = true
			result.Status = "sent"
			result.MessageID = msgID
		}
	}

	metrics.NotificationsSent.WithLabelValues(string(event), models.ChannelEmail, result.Status).Inc()
	fields := map[string]interface{}{
		"event":          string(event),
		"to":             to,
		"notificationId": result.NotificationID,
	}
	if result.Success {
		fields["messageId"] = result.MessageID
		d.logger.Info("Email sent", fields)
	} else {
		fields["error"] = result.Error
		d.logger.Error("Email send failed", fields)
	}

	d.appendLog(ctx, models.EmailLog{
		ID:        result.NotificationID,
		Type:      string(event),
		To:        to,
		Subject:   email.Subject,
		Status:    result.Status,
		MessageID: result.MessageID,
		Error:     result.Error,
		SentAt:    result.SentAt,
	})
	return result
}

func (d *Dispatcher) appendLog(ctx context.Context, entry models.EmailLog) {
	if d.log == nil {
		return
	}
	if err := d.log.Append(ctx, entry); err != nil {
		d.logger.Warn("Failed to record email log", map[string]interface{}{"error": err.Error()})
	}
}

func (d *Dispatcher) failed(msg string) models.NotificationResult {
	return models.NotificationResult{
		NotificationID: d.newID("email"),
		Status:         "failed",
		Error:          msg,
		SentAt:         models.Timestamp(d.now()),
	}
}

func (d *Dispatcher) dashboardURL() string {
	return strings.TrimRight(d.opts.BaseURL, "/") + "/broker-dashboard"
}
