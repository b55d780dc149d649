// internal/crm/leads.go
package crm

import (
	"context"
	"sort"
	"time"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

// AddLead stores a new lead and notifies the admin.
func (s *Store) AddLead(ctx context.Context, in models.LeadInput) (*models.Lead, error) {
	now := s.stamp()
	l := models.Lead{
		ID:                s.newID("cust"),
		Name:              in.Name,
		Email:             in.Email,
		Phone:             in.Phone,
		State:             in.State,
		PropertyID:        in.PropertyID,
		ConsultationType:  in.ConsultationType,
		Message:           in.Message,
		Source:            in.Source,
		Status:            models.LeadStatusNew,
		Priority:          string(priorityFor(in)),
		Budget:            in.Budget,
		PreferredLocation: in.PreferredLocation,
		Bedrooms:          in.Bedrooms,
		PropertyType:      in.PropertyType,
		Interactions:      []models.Interaction{},
		Tasks:             []models.Task{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if l.Source == "" {
		l.Source = "lead_form"
	}

	if err := s.leads.Append(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("Lead captured", map[string]interface{}{"leadId": l.ID, "source": l.Source})

	if s.notifier != nil {
		if res := s.notifier.NotifyLead(ctx, l); !res.Success {
			s.logger.Warn("Lead notification failed", map[string]interface{}{"leadId": l.ID, "error": res.Error})
		}
	}
	return &l, nil
}

// GetLead returns the lead or LEAD_NOT_FOUND.
func (s *Store) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	l, ok, err := s.leads.Find(ctx, func(l models.Lead) bool { return l.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewLeadNotFoundError(id)
	}
	return &l, nil
}

// GetAllLeads returns every lead, newest first.
func (s *Store) GetAllLeads(ctx context.Context) ([]models.Lead, error) {
	items, err := s.leads.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })
	return items, nil
}

// UpdateLeadStatus writes any status (no transition check) and records a
// status_change interaction.
func (s *Store) UpdateLeadStatus(ctx context.Context, id, status, note string) (*models.Lead, error) {
	return s.mutateLead(ctx, id, func(l *models.Lead) {
		desc := "Status changed from " + l.Status + " to " + status
		if note != "" {
			desc += ": " + note
		}
		l.Status = status
		l.Interactions = append(l.Interactions, models.Interaction{
			ID:          s.newID("int"),
			Type:        "status_change",
			Description: desc,
			CreatedAt:   s.stamp(),
			CreatedBy:   defaultNoteAuthor,
		})
	})
}

// AddLeadInteraction appends an interaction to the lead's history.
func (s *Store) AddLeadInteraction(ctx context.Context, id, interactionType, description, createdBy string) (*models.Lead, error) {
	if createdBy == "" {
		createdBy = defaultNoteAuthor
	}
	return s.mutateLead(ctx, id, func(l *models.Lead) {
		l.Interactions = append(l.Interactions, models.Interaction{
			ID:          s.newID("int"),
			Type:        interactionType,
			Description: description,
			CreatedAt:   s.stamp(),
			CreatedBy:   createdBy,
		})
	})
}

// AddLeadTask adds an open task to the lead.
func (s *Store) AddLeadTask(ctx context.Context, id, title string, due time.Time) (*models.Task, error) {
	var task models.Task
	_, err := s.mutateLead(ctx, id, func(l *models.Lead) {
		task = models.Task{
			ID:        s.newID("task"),
			Title:     title,
			CreatedAt: s.stamp(),
		}
		if !due.IsZero() {
			task.DueDate = models.Timestamp(due)
		}
		l.Tasks = append(l.Tasks, task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CompleteLeadTask marks a task done.
func (s *Store) CompleteLeadTask(ctx context.Context, leadID, taskID string) (*models.Task, error) {
	var task *models.Task
	_, err := s.mutateLead(ctx, leadID, func(l *models.Lead) {
		for i := range l.Tasks {
			if l.Tasks[i].ID == taskID {
				l.Tasks[i].Completed = true
				l.Tasks[i].CompletedAt = s.stamp()
				t := l.Tasks[i]
				task = &t
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NewInvalidInputError("task " + taskID + " not found on lead " + leadID)
	}
	return task, nil
}

// DeleteLead removes the lead along with its interactions and tasks.
// It reports whether a lead was removed.
func (s *Store) DeleteLead(ctx context.Context, id string) (bool, error) {
	removed := false
	err := s.leads.Update(ctx, func(items []models.Lead) ([]models.Lead, error) {
		out := items[:0]
		for _, l := range items {
			if l.ID == id {
				removed = true
				continue
			}
			out = append(out, l)
		}
		return out, nil
	})
	return removed, err
}

// GetOverdueLeads returns untouched leads older than three days.
func (s *Store) GetOverdueLeads(ctx context.Context) ([]models.Lead, error) {
	cutoff := s.now().Add(-3 * 24 * time.Hour)
	return s.leads.Filter(ctx, func(l models.Lead) bool {
		if l.Status != models.LeadStatusNew && l.Status != models.LeadStatusPending {
			return false
		}
		created, err := models.ParseTimestamp(l.CreatedAt)
		return err == nil && created.Before(cutoff)
	})
}

// GetHighPriorityLeads returns leads marked high priority or scoring above 80.
func (s *Store) GetHighPriorityLeads(ctx context.Context) ([]models.Lead, error) {
	now := s.now()
	return s.leads.Filter(ctx, func(l models.Lead) bool {
		return l.Priority == string(models.PriorityHigh) || CalculateLeadScore(l, now) > 80
	})
}

func (s *Store) mutateLead(ctx context.Context, id string, fn func(*models.Lead)) (*models.Lead, error) {
	var out *models.Lead
	err := s.leads.Update(ctx, func(items []models.Lead) ([]models.Lead, error) {
		for i := range items {
			if items[i].ID == id {
				fn(&items[i])
				items[i].UpdatedAt = s.stamp()
				l := items[i]
				out = &l
				return items, nil
			}
		}
		return nil, apperrors.NewLeadNotFoundError(id)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
