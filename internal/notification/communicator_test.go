// internal/notification/communicator_test.go
package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

func newTestCommunicator(t *testing.T, email EmailSender, sms SMSSender, social SocialEndpoints, now *time.Time) *Communicator {
	rdb := setupRedis(t)
	return NewCommunicator(
		email, sms, httpclient.NewClient(5*time.Second), social,
		store.NewCollection[models.CommunicationLog](rdb, store.CommunicationLogs, nil),
		store.NewCollection[models.ScheduledMessage](rdb, store.ScheduledMessages, nil),
		logger.NewTestLogger(t),
	).WithClock(func() time.Time { return *now }, store.SequentialIDs())
}

func TestCommunicator_SendEmailWrapsHTML(t *testing.T) {
	email := &fakeEmail{}
	now := fixedNow
	c := newTestCommunicator(t, email, nil, nil, &now)

	res, err := c.Send(context.Background(), models.ChannelEmail, models.Message{
		LeadID: "lead_1", BrokerID: "b1", To: "ann@x.io", Subject: "Homes", Content: "line one\nline two",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.ChannelEmail, res.Channel)

	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].HTML, "line one<br>line two")
	assert.Contains(t, email.sent[0].HTML, "© 2026 USA HUD Homes")

	history, err := c.History(context.Background(), "lead_1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "sent", history[0].Status)
}

func TestCommunicator_SocialChannels(t *testing.T) {
	var bodies []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"success":true,"messageId":"fb-1"}`))
	}))
	defer srv.Close()

	now := fixedNow
	c := newTestCommunicator(t, nil, nil, SocialEndpoints{
		models.ChannelFacebook: srv.URL,
		models.ChannelWhatsApp: srv.URL,
	}, &now)

	res, err := c.Send(context.Background(), models.ChannelFacebook, models.Message{To: "psid-1", Content: "hi"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "fb-1", res.MessageID)

	_, err = c.Send(context.Background(), models.ChannelWhatsApp, models.Message{To: "+1555", Content: "yo"})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, map[string]string{"recipientId": "psid-1", "message": "hi"}, bodies[0])
	assert.Equal(t, map[string]string{"to": "+1555", "message": "yo"}, bodies[1])
}

func TestCommunicator_ChannelErrors(t *testing.T) {
	now := fixedNow
	c := newTestCommunicator(t, nil, nil, nil, &now)

	_, err := c.Send(context.Background(), "pigeon", models.Message{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedChannel))

	_, err = c.Send(context.Background(), models.ChannelInstagram, models.Message{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeChannelNotConfigured))

	_, err = c.Send(context.Background(), models.ChannelSMS, models.Message{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeChannelNotConfigured))
}

func TestCommunicator_ScheduleAndDeliverDue(t *testing.T) {
	sms := &fakeSMS{}
	now := fixedNow
	c := newTestCommunicator(t, nil, sms, nil, &now)
	ctx := context.Background()

	soon, err := c.Schedule(ctx, models.ChannelSMS, models.Message{BrokerID: "b1", To: "+1555", Content: "reminder"}, now.Add(time.Hour))
	require.NoError(t, err)
	later, err := c.Schedule(ctx, models.ChannelSMS, models.Message{BrokerID: "b1", To: "+1555", Content: "later"}, now.Add(48*time.Hour))
	require.NoError(t, err)
	cancelled, err := c.Schedule(ctx, models.ChannelSMS, models.Message{BrokerID: "b1", To: "+1555", Content: "never"}, now.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, c.CancelScheduled(ctx, cancelled.ID))

	pending, err := c.Scheduled(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	n, err := c.DeliverDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	now = now.Add(2 * time.Hour)
	n, err = c.DeliverDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"reminder"}, sms.messages)

	pending, err = c.Scheduled(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, later.ID, pending[0].ID)
	assert.NotEqual(t, soon.ID, pending[0].ID)
}

func TestCommunicator_CancelUnknown(t *testing.T) {
	now := fixedNow
	c := newTestCommunicator(t, nil, nil, nil, &now)
	err := c.CancelScheduled(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMessageNotFound))
}

func TestCommunicator_ScheduleUnsupportedChannel(t *testing.T) {
	now := fixedNow
	c := newTestCommunicator(t, nil, nil, nil, &now)
	_, err := c.Schedule(context.Background(), "fax", models.Message{}, now)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedChannel))
}
