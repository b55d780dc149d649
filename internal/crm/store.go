// internal/crm/store.go
package crm

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
	"usahud-crm/internal/notification"
	"usahud-crm/internal/store"
)

// Notifier receives new customer, consultation and lead records.
type Notifier interface {
	NotifyNewCustomer(ctx context.Context, c models.Customer) models.NotificationResult
	NotifyConsultation(ctx context.Context, c models.Consultation) models.NotificationResult
	NotifyLead(ctx context.Context, l models.Lead) models.NotificationResult
}

const defaultNoteAuthor = "Marc Spencer"

// Store keeps customers, consultations and leads as whole JSON arrays.
// Writers do not lock; the last write wins.
type Store struct {
	customers     *store.Collection[models.Customer]
	consultations *store.Collection[models.Consultation]
	leads         *store.Collection[models.Lead]

	notifier Notifier
	events   EventRecorder
	logger   logger.Logger
	now      func() time.Time
	newID    store.IDFunc
}

// NewStore binds the three collections on rdb. keyFn may be nil.
func NewStore(rdb redis.Cmdable, keyFn func(string) string, notifier Notifier, log logger.Logger) *Store {
	return &Store{
		customers:     store.NewCollection[models.Customer](rdb, store.Customers, keyFn),
		consultations: store.NewCollection[models.Consultation](rdb, store.Consultations, keyFn),
		leads:         store.NewCollection[models.Lead](rdb, store.Leads, keyFn),
		notifier:      notifier,
		logger:        log.WithFields(map[string]interface{}{"component": "crm"}),
		now:           time.Now,
		newID:         store.NewID,
	}
}

// WithClock overrides the time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// WithIDGenerator overrides id generation.
func (s *Store) WithIDGenerator(fn store.IDFunc) *Store {
	s.newID = fn
	return s
}

// WithEventRecorder mirrors consultation activity into an event log.
func (s *Store) WithEventRecorder(r EventRecorder) *Store {
	s.events = r
	return s
}

func (s *Store) stamp() string {
	return models.Timestamp(s.now())
}

// ==========================
// Customers
// ==========================

// AddCustomer stores a new customer and notifies the admin. A failed
// notification is logged and does not fail the add.
func (s *Store) AddCustomer(ctx context.Context, in models.CustomerInput) (*models.Customer, error) {
	now := s.stamp()
	c := models.Customer{
		ID:         s.newID("cust"),
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		State:      in.State,
		PropertyID: in.PropertyID,
		Status:     models.CustomerStatusNew,
		Source:     in.Source,
		Notes:      []models.Note{},
		Activities: []models.Activity{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.Source == "" {
		c.Source = "website"
	}

	if err := s.customers.Append(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Customer added", map[string]interface{}{"customerId": c.ID, "source": c.Source})

	if s.notifier != nil {
		if res := s.notifier.NotifyNewCustomer(ctx, c); !res.Success {
			s.logger.Warn("New customer notification failed", map[string]interface{}{
				"customerId": c.ID,
				"error":      res.Error,
			})
		}
	}
	return &c, nil
}

// UpdateCustomer applies the non-nil patch fields. It returns nil, nil when
// the id is unknown.
func (s *Store) UpdateCustomer(ctx context.Context, id string, patch models.CustomerPatch) (*models.Customer, error) {
	var updated *models.Customer
	err := s.customers.Update(ctx, func(items []models.Customer) ([]models.Customer, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			applyCustomerPatch(&items[i], patch)
			items[i].UpdatedAt = s.stamp()
			c := items[i]
			updated = &c
			return items, nil
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyCustomerPatch(c *models.Customer, p models.CustomerPatch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Name, p.Name)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.State, p.State)
	set(&c.PropertyID, p.PropertyID)
	set(&c.Status, p.Status)
	set(&c.Source, p.Source)
}

// GetCustomer returns nil, nil when the id is unknown.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, ok, err := s.customers.Find(ctx, func(c models.Customer) bool { return c.ID == id })
	if err != nil || !ok {
		return nil, err
	}
	return &c, nil
}

// GetAllCustomers returns every customer, newest first.
func (s *Store) GetAllCustomers(ctx context.Context) ([]models.Customer, error) {
	items, err := s.customers.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })
	return items, nil
}

// SearchCustomers matches query case-insensitively against name, email,
// phone and state. An empty query returns everything.
func (s *Store) SearchCustomers(ctx context.Context, query string) ([]models.Customer, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.customers.Filter(ctx, func(c models.Customer) bool {
		if q == "" {
			return true
		}
		for _, field := range []string{c.Name, c.Email, c.Phone, c.State} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	})
}

// AddCustomerNote appends a note. It returns nil, nil when the id is unknown.
func (s *Store) AddCustomerNote(ctx context.Context, id, text, createdBy string) (*models.Customer, error) {
	if createdBy == "" {
		createdBy = defaultNoteAuthor
	}
	return s.mutateCustomer(ctx, id, func(c *models.Customer) {
		c.Notes = append(c.Notes, models.Note{
			ID:        s.newID("note"),
			Text:      text,
			CreatedAt: s.stamp(),
			CreatedBy: createdBy,
		})
	})
}

// AddCustomerActivity appends an activity entry.
func (s *Store) AddCustomerActivity(ctx context.Context, id, activityType, description string) (*models.Customer, error) {
	return s.mutateCustomer(ctx, id, func(c *models.Customer) {
		c.Activities = append(c.Activities, models.Activity{
			ID:          s.newID("act"),
			Type:        activityType,
			Description: description,
			CreatedAt:   s.stamp(),
		})
	})
}

func (s *Store) mutateCustomer(ctx context.Context, id string, fn func(*models.Customer)) (*models.Customer, error) {
	var out *models.Customer
	err := s.customers.Update(ctx, func(items []models.Customer) ([]models.Customer, error) {
		for i := range items {
			if items[i].ID == id {
				fn(&items[i])
				items[i].UpdatedAt = s.stamp()
				c := items[i]
				out = &c
				break
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ==========================
// Consultations
// ==========================

// AddConsultation stores a pending consultation with a classified priority
// and notifies the admin.
func (s *Store) AddConsultation(ctx context.Context, in models.ConsultationInput) (*models.Consultation, error) {
	now := s.stamp()
	c := models.Consultation{
		ID:               s.newID("cust"),
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		State:            in.State,
		ConsultationType: in.ConsultationType,
		Message:          in.Message,
		PropertyID:       in.PropertyID,
		Priority:         string(notification.ClassifyPriority(in.ConsultationType, in.PropertyID)),
		Status:           models.ConsultationPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.consultations.Append(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Consultation added", map[string]interface{}{
		"consultationId": c.ID,
		"priority":       c.Priority,
		"type":           c.ConsultationType,
	})

	if s.events != nil {
		if err := s.events.RecordConsultation(ctx, c); err != nil {
			s.logger.Warn("Consultation mirror failed", map[string]interface{}{"consultationId": c.ID, "error": err.Error()})
		}
		s.recordEvent(ctx, ConsultationEvent{
			ConsultationID: c.ID,
			Type:           EventConsultationCreated,
			Description:    "Consultation requested: " + c.ConsultationType,
			Metadata:       map[string]interface{}{"priority": c.Priority},
		})
	}

	if s.notifier != nil {
		if res := s.notifier.NotifyConsultation(ctx, c); !res.Success {
			s.logger.Warn("Consultation notification failed", map[string]interface{}{
				"consultationId": c.ID,
				"error":          res.Error,
			})
		}
	}
	return &c, nil
}

// UpdateConsultationStatus sets a consultation's status. It returns nil, nil
// when the id is unknown.
func (s *Store) UpdateConsultationStatus(ctx context.Context, id, status string) (*models.Consultation, error) {
	var out *models.Consultation
	var previous string
	err := s.consultations.Update(ctx, func(items []models.Consultation) ([]models.Consultation, error) {
		for i := range items {
			if items[i].ID == id {
				previous = items[i].Status
				items[i].Status = status
				items[i].UpdatedAt = s.stamp()
				c := items[i]
				out = &c
				break
			}
		}
		return items, nil
	})
	if err != nil || out == nil {
		return out, err
	}

	s.recordEvent(ctx, ConsultationEvent{
		ConsultationID: id,
		Type:           EventStatusChanged,
		Description:    "Status changed from " + previous + " to " + status,
	})
	return out, nil
}

// GetAllConsultations returns every consultation, newest first.
func (s *Store) GetAllConsultations(ctx context.Context) ([]models.Consultation, error) {
	items, err := s.consultations.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt > items[j].CreatedAt })
	return items, nil
}

func (s *Store) recordEvent(ctx context.Context, ev ConsultationEvent) {
	if s.events == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}
	if err := s.events.RecordEvent(ctx, ev); err != nil {
		s.logger.Warn("Consultation event not recorded", map[string]interface{}{
			"eventType": ev.Type,
			"error":     err.Error(),
		})
	}
}

// ==========================
// Dashboard
// ==========================

// GetDashboardStats summarises the three collections. "Today" is the current
// UTC calendar day; week and month are rolling 7 and 30 day windows.
func (s *Store) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	customers, err := s.customers.Load(ctx)
	if err != nil {
		return nil, err
	}
	consultations, err := s.consultations.Load(ctx)
	if err != nil {
		return nil, err
	}
	leads, err := s.leads.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := now.Format("2006-01-02")
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	stats := &models.DashboardStats{
		TotalCustomers:     len(customers),
		TotalConsultations: len(consultations),
		TotalLeads:         len(leads),
	}

	for _, c := range customers {
		created, err := models.ParseTimestamp(c.CreatedAt)
		if err != nil {
			continue
		}
		created = created.UTC()
		if created.Format("2006-01-02") == today {
			stats.NewCustomersToday++
		}
		if !created.Before(weekAgo) {
			stats.NewCustomersThisWeek++
		}
		if !created.Before(monthAgo) {
			stats.NewCustomersThisMonth++
		}
	}

	for _, c := range consultations {
		if c.Status != models.ConsultationPending {
			continue
		}
		stats.PendingConsultations++
		if c.Priority == string(models.PriorityHigh) {
			stats.HighPriorityConsultations++
		}
	}

	for _, l := range leads {
		if strings.HasPrefix(l.CreatedAt, today) {
			stats.NewLeadsToday++
		}
	}
	return stats, nil
}
