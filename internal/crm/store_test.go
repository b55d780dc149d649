// internal/crm/store_test.go
package crm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

var baseTime = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	customers     []models.Customer
	consultations []models.Consultation
	leads         []models.Lead
	fail          bool
}

func (n *recordingNotifier) result() models.NotificationResult {
	if n.fail {
		return models.NotificationResult{Success: false, Error: "endpoint down"}
	}
	return models.NotificationResult{Success: true}
}

func (n *recordingNotifier) NotifyNewCustomer(ctx context.Context, c models.Customer) models.NotificationResult {
	n.customers = append(n.customers, c)
	return n.result()
}

func (n *recordingNotifier) NotifyConsultation(ctx context.Context, c models.Consultation) models.NotificationResult {
	n.consultations = append(n.consultations, c)
	return n.result()
}

func (n *recordingNotifier) NotifyLead(ctx context.Context, l models.Lead) models.NotificationResult {
	n.leads = append(n.leads, l)
	return n.result()
}

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupStore(t *testing.T) (*Store, *recordingNotifier, *testClock, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	n := &recordingNotifier{}
	clock := &testClock{t: baseTime}
	s := NewStore(rdb, nil, n, logger.NewTestLogger(t)).
		WithClock(clock.Now).
		WithIDGenerator(store.SequentialIDs())
	return s, n, clock, mr
}

func TestStore_AddCustomer(t *testing.T) {
	s, n, _, mr := setupStore(t)

	c, err := s.AddCustomer(context.Background(), models.CustomerInput{
		Name: "Ann Lee", Email: "ann@example.com", Phone: "910-555-0100", State: "NC",
	})
	require.NoError(t, err)

	assert.Equal(t, "cust_1", c.ID)
	assert.Equal(t, models.CustomerStatusNew, c.Status)
	assert.Equal(t, "website", c.Source)
	assert.Equal(t, "2026-05-20T12:00:00.000Z", c.CreatedAt)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	assert.NotNil(t, c.Notes)
	require.Len(t, n.customers, 1)
	assert.Equal(t, "Ann Lee", n.customers[0].Name)
	assert.True(t, mr.Exists(store.Customers))
}

func TestStore_AddCustomerSurvivesNotificationFailure(t *testing.T) {
	s, n, _, _ := setupStore(t)
	n.fail = true

	c, err := s.AddCustomer(context.Background(), models.CustomerInput{Name: "Bo", Email: "bo@x.io", Phone: "1"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	all, err := s.GetAllCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_UpdateCustomer(t *testing.T) {
	s, _, clock, _ := setupStore(t)
	ctx := context.Background()

	c, err := s.AddCustomer(ctx, models.CustomerInput{Name: "Ann", Email: "ann@x.io", Phone: "1"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	status := models.CustomerStatusContacted
	updated, err := s.UpdateCustomer(ctx, c.ID, models.CustomerPatch{Status: &status})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "contacted", updated.Status)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, "2026-05-20T13:00:00.000Z", updated.UpdatedAt)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)

	missing, err := s.UpdateCustomer(ctx, "cust_nope", models.CustomerPatch{Status: &status})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_SearchCustomers(t *testing.T) {
	s, _, _, _ := setupStore(t)
	ctx := context.Background()

	for _, in := range []models.CustomerInput{
		{Name: "Ann Lee", Email: "ann@example.com", Phone: "910-555-0100", State: "NC"},
		{Name: "Bob Stone", Email: "BOB@Mail.com", Phone: "704-555-0111", State: "SC"},
		{Name: "Cara Diaz", Email: "cara@example.org", Phone: "305-555-0122", State: "FL"},
	} {
		_, err := s.AddCustomer(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"ann", []string{"Ann Lee"}},
		{"mail.COM", []string{"Bob Stone"}},
		{"555-01", []string{"Ann Lee", "Bob Stone", "Cara Diaz"}},
		{"fl", []string{"Cara Diaz"}},
		{"example", []string{"Ann Lee", "Cara Diaz"}},
		{"", []string{"Ann Lee", "Bob Stone", "Cara Diaz"}},
		{"zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.SearchCustomers(ctx, tt.query)
			require.NoError(t, err)
			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestStore_NotesAndActivities(t *testing.T) {
	s, _, _, _ := setupStore(t)
	ctx := context.Background()
	c, err := s.AddCustomer(ctx, models.CustomerInput{Name: "Ann", Email: "a@x.io", Phone: "1"})
	require.NoError(t, err)

	withNote, err := s.AddCustomerNote(ctx, c.ID, "Prefers mornings", "")
	require.NoError(t, err)
	require.Len(t, withNote.Notes, 1)
	assert.Equal(t, "Marc Spencer", withNote.Notes[0].CreatedBy)

	withActivity, err := s.AddCustomerActivity(ctx, c.ID, "call", "Left voicemail")
	require.NoError(t, err)
	assert.Len(t, withActivity.Notes, 1)
	require.Len(t, withActivity.Activities, 1)
	assert.Equal(t, "call", withActivity.Activities[0].Type)

	none, err := s.AddCustomerNote(ctx, "missing", "x", "me")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_AddConsultationClassifiesPriority(t *testing.T) {
	s, n, _, _ := setupStore(t)
	ctx := context.Background()

	c, err := s.AddConsultation(ctx, models.ConsultationInput{
		Name: "Ann", Email: "a@x.io", Phone: "1", ConsultationType: "general", PropertyID: "387-000111 PRICE REDUCED",
	})
	require.NoError(t, err)
	assert.Equal(t, "high", c.Priority)
	assert.Equal(t, "pending", c.Status)
	require.Len(t, n.consultations, 1)

	updated, err := s.UpdateConsultationStatus(ctx, c.ID, "contacted")
	require.NoError(t, err)
	assert.Equal(t, "contacted", updated.Status)

	missing, err := s.UpdateConsultationStatus(ctx, "nope", "contacted")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_GetAllCustomersNewestFirst(t *testing.T) {
	s, _, clock, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.AddCustomer(ctx, models.CustomerInput{Name: "first"})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = s.AddCustomer(ctx, models.CustomerInput{Name: "second"})
	require.NoError(t, err)

	all, err := s.GetAllCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Name)
}

func TestStore_DashboardStats(t *testing.T) {
	s, _, clock, _ := setupStore(t)
	ctx := context.Background()

	clock.t = baseTime.Add(-40 * 24 * time.Hour)
	_, err := s.AddCustomer(ctx, models.CustomerInput{Name: "old"})
	require.NoError(t, err)

	clock.t = baseTime.Add(-10 * 24 * time.Hour)
	_, err = s.AddCustomer(ctx, models.CustomerInput{Name: "this month"})
	require.NoError(t, err)

	clock.t = baseTime.Add(-2 * 24 * time.Hour)
	_, err = s.AddCustomer(ctx, models.CustomerInput{Name: "this week"})
	require.NoError(t, err)

	clock.t = baseTime.Add(-time.Hour)
	_, err = s.AddCustomer(ctx, models.CustomerInput{Name: "today"})
	require.NoError(t, err)
	_, err = s.AddLead(ctx, models.LeadInput{Name: "lead today"})
	require.NoError(t, err)

	high, err := s.AddConsultation(ctx, models.ConsultationInput{Name: "h", ConsultationType: "bidding"})
	require.NoError(t, err)
	_, err = s.AddConsultation(ctx, models.ConsultationInput{Name: "h2", ConsultationType: "urgent"})
	require.NoError(t, err)
	_, err = s.AddConsultation(ctx, models.ConsultationInput{Name: "n", ConsultationType: "general"})
	require.NoError(t, err)
	_, err = s.UpdateConsultationStatus(ctx, high.ID, "contacted")
	require.NoError(t, err)

	clock.t = baseTime
	stats, err := s.GetDashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, &models.DashboardStats{
		TotalCustomers:            4,
		NewCustomersToday:         1,
		NewCustomersThisWeek:      2,
		NewCustomersThisMonth:     3,
		TotalConsultations:        3,
		PendingConsultations:      2,
		HighPriorityConsultations: 1,
		TotalLeads:                1,
		NewLeadsToday:             1,
	}, stats)
}

func TestStore_StorageFailureSurfaces(t *testing.T) {
	s, _, _, mr := setupStore(t)
	require.NoError(t, mr.Set(store.Customers, "not json"))

	_, err := s.GetDashboardStats(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageReadFailed))
}
