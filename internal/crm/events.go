// internal/crm/events.go
package crm

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

// Consultation event types
const (
	EventConsultationCreated = "consultation_created"
	EventStatusChanged       = "status_changed"
	EventNoteAdded           = "note_added"
)

type ConsultationEvent struct {
	ConsultationID string
	CustomerID     string
	Type           string
	Description    string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

// EventRecorder mirrors consultation activity outside the blob store.
type EventRecorder interface {
	RecordConsultation(ctx context.Context, c models.Consultation) error
	RecordEvent(ctx context.Context, ev ConsultationEvent) error
}

// PostgresRecorder writes to the consultations and consultation_events tables.
type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

const upsertConsultationSQL = `
INSERT INTO consultations (id, customer_name, customer_email, customer_phone, state,
    consultation_type, message, property_id, priority, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

func (r *PostgresRecorder) RecordConsultation(ctx context.Context, c models.Consultation) error {
	created, err := models.ParseTimestamp(c.CreatedAt)
	if err != nil {
		created = time.Now().UTC()
	}
	updated, err := models.ParseTimestamp(c.UpdatedAt)
	if err != nil {
		updated = created
	}

	_, err = r.db.ExecContext(ctx, upsertConsultationSQL,
		c.ID, c.Name, c.Email, nullString(c.Phone), nullString(c.State),
		nullString(c.ConsultationType), nullString(c.Message), nullString(c.PropertyID),
		c.Priority, c.Status, created, updated,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "consultations")
	}
	return nil
}

const insertEventSQL = `
INSERT INTO consultation_events (id, consultation_id, customer_id, event_type, description, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *PostgresRecorder) RecordEvent(ctx context.Context, ev ConsultationEvent) error {
	var meta interface{}
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "consultation_events")
		}
		meta = string(raw)
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		uuid.NewString(), nullString(ev.ConsultationID), nullString(ev.CustomerID),
		ev.Type, nullString(ev.Description), meta, ev.CreatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err).WithMetadata("table", "consultation_events")
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
