// internal/notification/dispatcher_test.go
package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

type fakeEmail struct {
	mu   sync.Mutex
	sent []models.EmailPayload
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, p models.EmailPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	if f.err != nil {
		return "", f.err
	}
	return "msg-" + p.Type, nil
}

type fakeSMS struct {
	phones   []string
	messages []string
	err      error
}

func (f *fakeSMS) SendSMS(ctx context.Context, phone, message string) (string, error) {
	f.phones = append(f.phones, phone)
	f.messages = append(f.messages, message)
	if f.err != nil {
		return "", f.err
	}
	return "sms-1", nil
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestDispatcher(t *testing.T, email EmailSender, sms SMSSender, opts Options) *Dispatcher {
	rdb := setupRedis(t)
	emailLog := store.NewCollection[models.EmailLog](rdb, store.Emails, nil)
	return NewDispatcher(email, sms, emailLog, opts, logger.NewTestLogger(t)).
		WithClock(func() time.Time { return fixedNow }, store.SequentialIDs())
}

func TestDispatcher_NotifyNewCustomer(t *testing.T) {
	email := &fakeEmail{}
	d := newTestDispatcher(t, email, nil, Options{AdminEmail: "admin@usahudhomes.com"})

	res := d.NotifyNewCustomer(context.Background(), models.Customer{
		ID: "cust_1", Name: "Ann Lee", Email: "ann@example.com", Phone: "555-0100",
	})

	assert.True(t, res.Success)
	assert.Equal(t, "msg-new_customer", res.MessageID)
	assert.Equal(t, "email_1", res.NotificationID)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "admin@usahudhomes.com", email.sent[0].To)
	assert.Equal(t, "🏠 New Customer Registration - Ann Lee", email.sent[0].Subject)

	logs, err := d.EmailLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "sent", logs[0].Status)
	assert.Equal(t, "2026-03-14T15:04:05.000Z", logs[0].SentAt)
}

func TestDispatcher_FailureIsReportedNotRetried(t *testing.T) {
	email := &fakeEmail{err: errors.New("endpoint unreachable")}
	d := newTestDispatcher(t, email, nil, Options{AdminEmail: "admin@usahudhomes.com"})

	res := d.NotifyLead(context.Background(), models.Lead{ID: "lead_1", Name: "Bo", Email: "bo@x.io", Phone: "1"})

	assert.False(t, res.Success)
	assert.Equal(t, "endpoint unreachable", res.Error)
	assert.Len(t, email.sent, 1)

	logs, err := d.EmailLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "failed", logs[0].Status)
	assert.Equal(t, "endpoint unreachable", logs[0].Error)
}

func TestDispatcher_NoTransport(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, Options{AdminEmail: "a@b.co"})
	res := d.NotifyNewCustomer(context.Background(), models.Customer{Name: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, "Email service not configured", res.Error)
}

func TestDispatcher_ConsultationSMSThreshold(t *testing.T) {
	tests := []struct {
		name      string
		cType     string
		propID    string
		threshold string
		wantSMS   bool
	}{
		{"bidding meets high", "bidding", "", "high", true},
		{"price reduced meets high", "general", "387-123456 PRICE REDUCED", "high", true},
		{"financing below high", "financing", "", "high", false},
		{"financing meets medium", "203k", "", "medium", true},
		{"general below medium", "general", "", "medium", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := &fakeEmail{}
			sms := &fakeSMS{}
			d := newTestDispatcher(t, email, sms, Options{
				AdminEmail:   "admin@usahudhomes.com",
				BaseURL:      "https://usahudhomes.com",
				SMSEnabled:   true,
				SMSThreshold: tt.threshold,
				BrokerPhone:  "+19103636147",
			})

			res := d.NotifyConsultation(context.Background(), models.Consultation{
				ID: "c1", Name: "Ann", Email: "ann@x.io", Phone: "(555) 010-0000",
				ConsultationType: tt.cType, PropertyID: tt.propID,
			})

			assert.True(t, res.Success)
			assert.Equal(t, tt.wantSMS, res.SMSSent)
			if tt.wantSMS {
				require.Len(t, sms.messages, 1)
				assert.Equal(t, "+19103636147", sms.phones[0])
				assert.Contains(t, sms.messages[0], "NEW HUD INQUIRY")
				assert.Contains(t, sms.messages[0], "https://usahudhomes.com/broker-dashboard")
			} else {
				assert.Empty(t, sms.messages)
			}
		})
	}
}

func TestDispatcher_ConsultationGatewayEmail(t *testing.T) {
	email := &fakeEmail{}
	d := newTestDispatcher(t, email, nil, Options{
		AdminEmail:   "admin@usahudhomes.com",
		SMSEnabled:   true,
		SMSThreshold: "high",
		GatewayEmail: "9103636147@vtext.com",
	})

	res := d.NotifyConsultation(context.Background(), models.Consultation{
		Name: "Ann", Email: "ann@x.io", Phone: "1", ConsultationType: "urgent",
	})
	assert.True(t, res.SMSSent)
	require.Len(t, email.sent, 2)
	assert.Equal(t, "9103636147@vtext.com", email.sent[1].To)
	assert.Equal(t, "New HUD Inquiry: Ann", email.sent[1].Subject)
	assert.True(t, strings.HasPrefix(email.sent[1].HTML, "<pre>NEW HUD INQUIRY"))
}

func TestDispatcher_AgentEmailsGoToApplicant(t *testing.T) {
	email := &fakeEmail{}
	d := newTestDispatcher(t, email, nil, Options{AdminEmail: "admin@x.io", BaseURL: "https://usahudhomes.com/"})
	app := models.AgentApplication{FirstName: "Dana", Email: "dana@realty.com"}

	assert.True(t, d.SendAgentVerification(context.Background(), app, "tok123").Success)
	assert.True(t, d.SendAgentApproval(context.Background(), app, "Temp1!").Success)
	assert.True(t, d.SendAgentRejection(context.Background(), app, "incomplete").Success)

	require.Len(t, email.sent, 3)
	for _, p := range email.sent {
		assert.Equal(t, "dana@realty.com", p.To)
	}
	assert.Contains(t, email.sent[0].Text, "https://usahudhomes.com/agent/verify-email?token=tok123")
	assert.Contains(t, email.sent[1].Text, "https://usahudhomes.com/broker-dashboard")
}

func TestDispatcher_SendRaw(t *testing.T) {
	email := &fakeEmail{}
	d := newTestDispatcher(t, email, nil, Options{})

	res := d.SendRaw(context.Background(), models.EmailPayload{Type: "custom", To: "x@y.z", Subject: "S", HTML: "<b>h</b>"})
	assert.True(t, res.Success)
	assert.Equal(t, "msg-custom", res.MessageID)

	res = d.SendRaw(context.Background(), models.EmailPayload{Type: "custom", Subject: "S"})
	assert.False(t, res.Success)
	assert.Len(t, email.sent, 1)
}
