// internal/notification/communicator.go
package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "usahud-crm/internal/common/errors"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/metrics"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

// SocialEndpoints maps facebook, instagram and whatsapp to their relay URLs.
type SocialEndpoints map[string]string

type socialResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
}

// Communicator sends broker messages to leads over any supported channel and
// keeps a log and a queue of scheduled messages.
type Communicator struct {
	email     EmailSender
	sms       SMSSender
	http      *httpclient.Client
	social    SocialEndpoints
	logs      *store.Collection[models.CommunicationLog]
	scheduled *store.Collection[models.ScheduledMessage]
	logger    logger.Logger
	now       func() time.Time
	newID     store.IDFunc
}

func NewCommunicator(
	email EmailSender,
	sms SMSSender,
	client *httpclient.Client,
	social SocialEndpoints,
	logs *store.Collection[models.CommunicationLog],
	scheduled *store.Collection[models.ScheduledMessage],
	log logger.Logger,
) *Communicator {
	return &Communicator{
		email:     email,
		sms:       sms,
		http:      client,
		social:    social,
		logs:      logs,
		scheduled: scheduled,
		logger:    log.WithFields(map[string]interface{}{"component": "communicator"}),
		now:       time.Now,
		newID:     store.NewID,
	}
}

// WithClock overrides time and id sources.
func (c *Communicator) WithClock(now func() time.Time, newID store.IDFunc) *Communicator {
	c.now = now
	c.newID = newID
	return c
}

// Send delivers msg on channel. Unknown and unconfigured channels return an
// error; transport failures come back as an unsuccessful result and are logged.
func (c *Communicator) Send(ctx context.Context, channel string, msg models.Message) (models.SendResult, error) {
	var (
		msgID   string
		sendErr error
	)

	switch channel {
	case models.ChannelEmail:
		if c.email == nil {
			return models.SendResult{}, apperrors.NewChannelNotConfiguredError(channel)
		}
		msgID, sendErr = c.email.SendEmail(ctx, models.EmailPayload{
			Type:    "broker_message",
			To:      msg.To,
			Subject: msg.Subject,
			HTML:    FormatEmailHTML(msg.Content, c.now()),
			Text:    msg.Content,
		})
	case models.ChannelSMS:
		if c.sms == nil {
			return models.SendResult{}, apperrors.NewChannelNotConfiguredError(channel)
		}
		msgID, sendErr = c.sms.SendSMS(ctx, msg.To, msg.Content)
	case models.ChannelFacebook, models.ChannelInstagram, models.ChannelWhatsApp:
		url := c.social[channel]
		if url == "" || c.http == nil {
			return models.SendResult{}, apperrors.NewChannelNotConfiguredError(channel)
		}
		msgID, sendErr = c.sendSocial(ctx, channel, url, msg)
	default:
		return models.SendResult{}, apperrors.NewUnsupportedChannelError(channel)
	}

	result := models.SendResult{Success: sendErr == nil, Channel: channel, MessageID: msgID}
	status := "sent"
	if sendErr != nil {
		result.Error = sendErr.Error()
		status = "failed"
		c.logger.Warn("Message send failed", map[string]interface{}{
			"channel": channel,
			"leadId":  msg.LeadID,
			"error":   sendErr.Error(),
		})
	}
	metrics.CommunicationsSent.WithLabelValues(channel, status).Inc()

	c.record(ctx, models.CommunicationLog{
		ID:       c.newID("comm"),
		LeadID:   msg.LeadID,
		BrokerID: msg.BrokerID,
		Channel:  channel,
		Subject:  msg.Subject,
		Content:  msg.Content,
		Status:   status,
		Error:    result.Error,
		SentAt:   models.Timestamp(c.now()),
	})
	return result, nil
}

func (c *Communicator) sendSocial(ctx context.Context, channel, url string, msg models.Message) (string, error) {
	payload := map[string]string{"message": msg.Content}
	if channel == models.ChannelWhatsApp {
		payload["to"] = msg.To
	} else {
		recipient := msg.RecipientID
		if recipient == "" {
			recipient = msg.To
		}
		payload["recipientId"] = recipient
	}

	var resp socialResponse
	if err := c.http.PostJSON(ctx, url, nil, payload, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = fmt.Sprintf("%s relay reported failure", channel)
		}
		return "", errors.New(resp.Error)
	}
	return resp.MessageID, nil
}

func (c *Communicator) record(ctx context.Context, entry models.CommunicationLog) {
	if err := c.logs.Append(ctx, entry); err != nil {
		c.logger.Warn("Failed to record communication", map[string]interface{}{"error": err.Error()})
	}
}

// History returns a lead's communication log, newest first.
func (c *Communicator) History(ctx context.Context, leadID string) ([]models.CommunicationLog, error) {
	logs, err := c.logs.Filter(ctx, func(l models.CommunicationLog) bool { return l.LeadID == leadID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].SentAt > logs[j].SentAt })
	return logs, nil
}

// Schedule queues msg for delivery on channel at the given time.
func (c *Communicator) Schedule(ctx context.Context, channel string, msg models.Message, at time.Time) (models.ScheduledMessage, error) {
	switch channel {
	case models.ChannelEmail, models.ChannelSMS, models.ChannelFacebook, models.ChannelInstagram, models.ChannelWhatsApp:
	default:
		return models.ScheduledMessage{}, apperrors.NewUnsupportedChannelError(channel)
	}

	sm := models.ScheduledMessage{
		ID:           c.newID("sched"),
		Channel:      channel,
		Message:      msg,
		ScheduledFor: models.Timestamp(at),
		Status:       models.ScheduledPending,
		CreatedAt:    models.Timestamp(c.now()),
	}
	if err := c.scheduled.Append(ctx, sm); err != nil {
		return models.ScheduledMessage{}, err
	}
	return sm, nil
}

// Scheduled lists a broker's pending scheduled messages.
func (c *Communicator) Scheduled(ctx context.Context, brokerID string) ([]models.ScheduledMessage, error) {
	return c.scheduled.Filter(ctx, func(m models.ScheduledMessage) bool {
		return m.Status == models.ScheduledPending && m.Message.BrokerID == brokerID
	})
}

// CancelScheduled marks a pending message cancelled.
func (c *Communicator) CancelScheduled(ctx context.Context, id string) error {
	return c.scheduled.Update(ctx, func(items []models.ScheduledMessage) ([]models.ScheduledMessage, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if items[i].Status == models.ScheduledPending {
				items[i].Status = models.ScheduledCancelled
			}
			return items, nil
		}
		return nil, apperrors.NewMessageNotFoundError(id)
	})
}

// DeliverDue sends every pending message whose time has come and returns how
// many were attempted.
func (c *Communicator) DeliverDue(ctx context.Context) (int, error) {
	queued, err := c.scheduled.Load(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now()
	outcome := make(map[string]string)
	for _, m := range queued {
		if m.Status != models.ScheduledPending {
			continue
		}
		at, err := models.ParseTimestamp(m.ScheduledFor)
		if err != nil || at.After(now) {
			continue
		}

		res, err := c.Send(ctx, m.Channel, m.Message)
		if err == nil && res.Success {
			outcome[m.ID] = models.ScheduledSent
		} else {
			outcome[m.ID] = models.ScheduledFailed
		}
	}
	if len(outcome) == 0 {
		return 0, nil
	}

	processedAt := models.Timestamp(c.now())
	err = c.scheduled.Update(ctx, func(items []models.ScheduledMessage) ([]models.ScheduledMessage, error) {
		for i := range items {
			if status, ok := outcome[items[i].ID]; ok && items[i].Status == models.ScheduledPending {
				items[i].Status = status
				items[i].ProcessedAt = processedAt
			}
		}
		return items, nil
	})
	return len(outcome), err
}

// FormatEmailHTML wraps a plain-text body in the standard broker email shell.
func FormatEmailHTML(body string, now time.Time) string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family:Arial,sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;padding:20px">
<div class="content">` + strings.ReplaceAll(body, "\n", "<br>") + `</div>
<div class="footer" style="margin-top:30px;padding-top:20px;border-top:1px solid #ddd;font-size:12px;color:#666">
<p>This message was sent via USA HUD Homes</p>
<p>© ` + fmt.Sprint(now.Year()) + ` USA HUD Homes. All rights reserved.</p>
</div>
</body>
</html>`
}
