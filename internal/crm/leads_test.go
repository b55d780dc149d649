// internal/crm/leads_test.go
package crm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

func TestStore_AddLeadDefaults(t *testing.T) {
	s, n, _, _ := setupStore(t)

	l, err := s.AddLead(context.Background(), models.LeadInput{
		Name: "Ann", Email: "ann@x.io", Phone: "1", ConsultationType: "financing",
	})
	require.NoError(t, err)
	assert.Equal(t, "new", l.Status)
	assert.Equal(t, "lead_form", l.Source)
	assert.Equal(t, "medium", l.Priority)
	assert.NotNil(t, l.Interactions)
	assert.NotNil(t, l.Tasks)
	assert.Len(t, n.leads, 1)
}

func TestStore_LeadStatusAndInteractions(t *testing.T) {
	s, _, _, _ := setupStore(t)
	ctx := context.Background()
	l, err := s.AddLead(ctx, models.LeadInput{Name: "Ann"})
	require.NoError(t, err)

	updated, err := s.UpdateLeadStatus(ctx, l.ID, "wildly_custom_status", "called twice")
	require.NoError(t, err)
	assert.Equal(t, "wildly_custom_status", updated.Status)
	require.Len(t, updated.Interactions, 1)
	assert.Equal(t, "status_change", updated.Interactions[0].Type)
	assert.Equal(t, "Status changed from new to wildly_custom_status: called twice", updated.Interactions[0].Description)

	updated, err = s.AddLeadInteraction(ctx, l.ID, "call", "Discussed FHA", "")
	require.NoError(t, err)
	assert.Len(t, updated.Interactions, 2)

	_, err = s.UpdateLeadStatus(ctx, "missing", "x", "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLeadNotFound))
}

func TestStore_LeadTasks(t *testing.T) {
	s, _, _, _ := setupStore(t)
	ctx := context.Background()
	l, err := s.AddLead(ctx, models.LeadInput{Name: "Ann"})
	require.NoError(t, err)

	task, err := s.AddLeadTask(ctx, l.ID, "Send listings", baseTime.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, task.Completed)
	assert.Equal(t, "2026-05-21T12:00:00.000Z", task.DueDate)

	done, err := s.CompleteLeadTask(ctx, l.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	got, err := s.GetLead(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.True(t, got.Tasks[0].Completed)

	_, err = s.CompleteLeadTask(ctx, l.ID, "task_missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestStore_DeleteLead(t *testing.T) {
	s, _, _, _ := setupStore(t)
	ctx := context.Background()
	a, err := s.AddLead(ctx, models.LeadInput{Name: "a"})
	require.NoError(t, err)
	_, err = s.AddLead(ctx, models.LeadInput{Name: "b"})
	require.NoError(t, err)

	removed, err := s.DeleteLead(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteLead(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	all, err := s.GetAllLeads(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Name)

	_, err = s.GetLead(ctx, a.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLeadNotFound))
}

func TestStore_OverdueAndHighPriorityLeads(t *testing.T) {
	s, _, clock, _ := setupStore(t)
	ctx := context.Background()

	clock.t = baseTime.Add(-5 * 24 * time.Hour)
	stale, err := s.AddLead(ctx, models.LeadInput{Name: "stale"})
	require.NoError(t, err)
	worked, err := s.AddLead(ctx, models.LeadInput{Name: "worked"})
	require.NoError(t, err)
	_, err = s.UpdateLeadStatus(ctx, worked.ID, "contacted", "")
	require.NoError(t, err)

	clock.t = baseTime.Add(-time.Hour)
	_, err = s.AddLead(ctx, models.LeadInput{Name: "fresh"})
	require.NoError(t, err)
	hot, err := s.AddLead(ctx, models.LeadInput{
		Name: "hot", Email: "h@x.io", Phone: "1", PropertyID: "387-1", ConsultationType: "financing",
	})
	require.NoError(t, err)
	bidder, err := s.AddLead(ctx, models.LeadInput{Name: "bidder", ConsultationType: "bidding"})
	require.NoError(t, err)

	clock.t = baseTime
	overdue, err := s.GetOverdueLeads(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, stale.ID, overdue[0].ID)

	priority, err := s.GetHighPriorityLeads(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, l := range priority {
		ids = append(ids, l.ID)
	}
	assert.ElementsMatch(t, []string{hot.ID, bidder.ID}, ids)
}
