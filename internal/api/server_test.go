// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/crm"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
	"usahud-crm/internal/workflow"
)

type stubNotifier struct{}

func (stubNotifier) NotifyNewCustomer(context.Context, models.Customer) models.NotificationResult {
	return models.NotificationResult{Success: true}
}

func (stubNotifier) NotifyConsultation(context.Context, models.Consultation) models.NotificationResult {
	return models.NotificationResult{Success: true}
}

func (stubNotifier) NotifyLead(context.Context, models.Lead) models.NotificationResult {
	return models.NotificationResult{Success: true}
}

type fakeRelay struct {
	sent []models.EmailPayload
	err  error
}

func (f *fakeRelay) SendEmail(_ context.Context, p models.EmailPayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, p)
	return "re_123", nil
}

type fakeSender struct {
	messages []models.Message
}

func (f *fakeSender) Send(_ context.Context, channel string, msg models.Message) (models.SendResult, error) {
	f.messages = append(f.messages, msg)
	return models.SendResult{Success: true, Channel: channel, MessageID: "msg_1"}, nil
}

type fakeSource struct {
	props []models.Property
}

func (f *fakeSource) Search(context.Context, models.Preferences, int) ([]models.Property, error) {
	return f.props, nil
}

func (f *fakeSource) GetByIDs(_ context.Context, ids []string) ([]models.Property, error) {
	var out []models.Property
	for _, p := range f.props {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type fixture struct {
	server *Server
	relay  *fakeRelay
	sender *fakeSender
	crm    *crm.Store
}

func setup(t *testing.T, relay *fakeRelay) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewNoOpLogger()
	sender := &fakeSender{}
	source := &fakeSource{props: []models.Property{
		{ID: "p1", CaseNumber: "093-000001", Address: "1 Bay Rd", City: "Tampa", State: "FL", ListPrice: 120000, Bedrooms: 3, Bathrooms: 2, Status: "available"},
		{ID: "p2", CaseNumber: "093-000002", Address: "2 Bay Rd", City: "Tampa", State: "FL", ListPrice: 90000, Bedrooms: 2, Bathrooms: 1, Status: "available"},
	}}

	crmStore := crm.NewStore(rdb, nil, stubNotifier{}, log)
	matcher := matching.NewMatcher(source, sender,
		store.NewCollection[models.PropertyShare](rdb, store.PropertyShares, nil),
		store.NewCollection[models.ShareableLink](rdb, store.ShareableLinks, nil),
		"https://usahudhomes.com/", log)
	engine := workflow.NewEngine(workflow.NewCatalog(workflow.DefaultPresets()...),
		store.NewCollection[models.WorkflowInstance](rdb, store.WorkflowInstances, nil),
		sender, matcher, crmStore, log)

	deps := Deps{
		CRM:          crmStore,
		Matcher:      matcher,
		Workflows:    engine,
		GatewayEmail: "9105550100@vtext.com",
		DashboardURL: "https://usahudhomes.com/broker-dashboard",
		ReadyChecks: map[string]Check{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Logger: log,
	}
	if relay != nil {
		deps.Relay = relay
	}
	return &fixture{server: NewServer(deps), relay: relay, sender: sender, crm: crmStore}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthAndReady(t *testing.T) {
	f := setup(t, nil)

	rec, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	rec, body = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])

	f.server.deps.ReadyChecks["postgres"] = func(context.Context) error { return errors.New("refused") }
	rec, body = f.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	rec, _ = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendEmail(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		f := setup(t, &fakeRelay{})
		rec, body := f.do(t, http.MethodPost, "/api/send-email", map[string]string{"type": "welcome", "to": "a@b.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Missing required fields", body["error"])
	})

	t.Run("not configured", func(t *testing.T) {
		f := setup(t, nil)
		rec, body := f.do(t, http.MethodPost, "/api/send-email", models.EmailPayload{Type: "welcome", To: "a@b.com", Subject: "Hi", HTML: "<p>Hi</p>"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Email service not configured", body["error"])
	})

	t.Run("relay failure", func(t *testing.T) {
		f := setup(t, &fakeRelay{err: errors.New("rate limited")})
		rec, body := f.do(t, http.MethodPost, "/api/send-email", models.EmailPayload{Type: "welcome", To: "a@b.com", Subject: "Hi", HTML: "<p>Hi</p>"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Failed to send email", body["error"])
	})

	t.Run("sent", func(t *testing.T) {
		f := setup(t, &fakeRelay{})
		rec, body := f.do(t, http.MethodPost, "/api/send-email", models.EmailPayload{Type: "welcome", To: "a@b.com", Subject: "Hi", HTML: "<p>Hi</p>"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "re_123", body["messageId"])
		assert.Equal(t, "welcome", body["type"])
		require.Len(t, f.relay.sent, 1)
		assert.Equal(t, "a@b.com", f.relay.sent[0].To)
	})
}

func TestSendAgentEmailRejectsUnknownType(t *testing.T) {
	f := setup(t, &fakeRelay{})

	rec, body := f.do(t, http.MethodPost, "/api/send-agent-email", models.EmailPayload{Type: "welcome", To: "a@b.com", Subject: "Hi", HTML: "<p>Hi</p>"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email type", body["error"])

	rec, body = f.do(t, http.MethodPost, "/api/send-agent-email", models.EmailPayload{Type: "approval", To: "a@b.com", Subject: "Approved", HTML: "<p>Welcome</p>"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approval", body["type"])
}

func TestSendNotificationGoesToGateway(t *testing.T) {
	f := setup(t, &fakeRelay{})

	rec, _ := f.do(t, http.MethodPost, "/api/send-notification", map[string]string{"customer_name": "Jane"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := f.do(t, http.MethodPost, "/api/send-notification", map[string]string{
		"customer_name":  "Jane Doe",
		"customer_email": "jane@example.com",
		"customer_phone": "(910) 555-0199",
		"case_number":    "381-123456",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "re_123", body["id"])

	require.Len(t, f.relay.sent, 1)
	sent := f.relay.sent[0]
	assert.Equal(t, "9105550100@vtext.com", sent.To)
	assert.Equal(t, "New HUD Inquiry: Jane Doe", sent.Subject)
	assert.Contains(t, sent.Text, "381-123456")
}

func TestCustomers(t *testing.T) {
	f := setup(t, nil)

	rec, body := f.do(t, http.MethodPost, "/api/v1/customers", map[string]string{"name": "Ann", "email": "not-an-email", "phone": "9105550100"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.Contains(t, body["details"], "email")

	rec, body = f.do(t, http.MethodPost, "/api/v1/customers", models.CustomerInput{Name: "Ann Lee", Email: "ann@example.com", Phone: "910-555-0100", State: "NC"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["data"].(map[string]interface{})["id"].(string)

	rec, body = f.do(t, http.MethodGet, "/api/v1/customers/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann Lee", body["data"].(map[string]interface{})["name"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/customers/search?q=ann", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, body = f.do(t, http.MethodPatch, "/api/v1/customers/"+id, map[string]string{"status": "contacted"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "contacted", body["data"].(map[string]interface{})["status"])

	rec, _ = f.do(t, http.MethodPost, "/api/v1/customers/"+id+"/notes", map[string]string{"text": "Called back"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, body = f.do(t, http.MethodGet, "/api/v1/customers/cust_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CUSTOMER_NOT_FOUND", body["code"])
}

func TestLeadsLifecycle(t *testing.T) {
	f := setup(t, nil)

	rec, body := f.do(t, http.MethodPost, "/api/v1/leads", models.LeadInput{Name: "Bo", Email: "bo@example.com", Phone: "9105550101", Budget: 150000})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["data"].(map[string]interface{})["id"].(string)

	rec, body = f.do(t, http.MethodPatch, "/api/v1/leads/"+id+"/status", map[string]string{"status": "contacted", "note": "left voicemail"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "contacted", body["data"].(map[string]interface{})["status"])

	rec, _ = f.do(t, http.MethodDelete, "/api/v1/leads/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodDelete, "/api/v1/leads/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LEAD_NOT_FOUND", body["code"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/dashboard/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["totalLeads"])
}

func TestWorkflowsEndpoints(t *testing.T) {
	f := setup(t, nil)

	rec, body := f.do(t, http.MethodGet, "/api/v1/workflows/presets", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 6)

	rec, body = f.do(t, http.MethodPost, "/api/v1/workflows", map[string]string{"workflowId": "nope", "leadId": "lead_x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "WORKFLOW_NOT_FOUND", body["code"])

	lead, err := f.crm.AddLead(context.Background(), models.LeadInput{Name: "Cy", Email: "cy@example.com", Phone: "9105550102"})
	require.NoError(t, err)

	rec, body = f.do(t, http.MethodPost, "/api/v1/workflows", map[string]string{
		"workflowId": workflow.InitialContact, "leadId": lead.ID, "brokerId": "broker_1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	inst := body["data"].(map[string]interface{})
	instID := inst["id"].(string)
	assert.Equal(t, lead.ID, inst["leadId"])
	require.NotEmpty(t, f.sender.messages)
	assert.Equal(t, "cy@example.com", f.sender.messages[0].To)

	rec, body = f.do(t, http.MethodPost, "/api/v1/workflows/"+instID+"/pause", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paused", body["data"].(map[string]interface{})["status"])

	rec, body = f.do(t, http.MethodPost, "/api/v1/workflows/"+instID+"/pause", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_WORKFLOW_STATE", body["code"])

	rec, body = f.do(t, http.MethodGet, "/api/v1/leads/"+lead.ID+"/workflows", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, body = f.do(t, http.MethodPost, "/api/v1/workflows/process", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["executed"])
}

func TestPropertyEndpoints(t *testing.T) {
	f := setup(t, nil)

	rec, body := f.do(t, http.MethodPost, "/api/v1/properties/match", models.Preferences{Budget: 125000, Location: "Tampa"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["totalFound"])

	rec, body = f.do(t, http.MethodPost, "/api/v1/properties/match", map[string]interface{}{"budget": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])

	rec, body = f.do(t, http.MethodPost, "/api/v1/share-links", map[string]interface{}{"propertyIds": []string{"p1"}, "brokerId": "broker_1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	link := body["data"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(link["link"].(string), "https://usahudhomes.com/shared/"))

	rec, body = f.do(t, http.MethodGet, "/api/v1/share-links/"+link["id"].(string), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"].(map[string]interface{})["properties"], 1)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/share-links/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = f.do(t, http.MethodPost, "/api/v1/properties/share", matching.ShareRequest{
		LeadID: "lead_1", Channel: "fax", ClientName: "Dee",
		Properties: []models.Property{{ID: "p1"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_CHANNEL", body["code"])
}

func TestUnregisteredRoutes(t *testing.T) {
	srv := NewServer(Deps{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

}
