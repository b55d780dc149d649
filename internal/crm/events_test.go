// internal/crm/events_test.go
package crm

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/models"
)

func TestPostgresRecorder_RecordConsultation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	c := models.Consultation{
		ID: "cust_1", Name: "Ann", Email: "ann@x.io", ConsultationType: "bidding",
		Priority: "high", Status: "pending", CreatedAt: "2026-05-20T12:00:00.000Z", UpdatedAt: "2026-05-20T12:00:00.000Z",
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consultations")).
		WithArgs("cust_1", "Ann", "ann@x.io", nil, nil, "bidding", nil, nil, "high", "pending", baseTime, baseTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresRecorder(db).RecordConsultation(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_RecordEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consultation_events")).
		WithArgs(sqlmock.AnyArg(), "cust_1", nil, EventStatusChanged, "moved", `{"by":"admin"}`, baseTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRecorder(db).RecordEvent(context.Background(), ConsultationEvent{
		ConsultationID: "cust_1",
		Type:           EventStatusChanged,
		Description:    "moved",
		Metadata:       map[string]interface{}{"by": "admin"},
		CreatedAt:      baseTime,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consultation_events")).
		WillReturnError(errors.New("relation does not exist"))

	err = NewPostgresRecorder(db).RecordEvent(context.Background(), ConsultationEvent{Type: EventNoteAdded, CreatedAt: baseTime})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseInsertFailed))
}

func TestStore_ConsultationMirroredToRecorder(t *testing.T) {
	s, _, _, _ := setupStore(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s.WithEventRecorder(NewPostgresRecorder(db))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consultations")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consultation_events")).
		WithArgs(sqlmock.AnyArg(), "cust_1", nil, EventConsultationCreated, "Consultation requested: bidding", `{"priority":"high"}`, baseTime).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO consultation_events")).
		WillReturnError(errors.New("connection reset"))

	c, err := s.AddConsultation(context.Background(), models.ConsultationInput{Name: "Ann", ConsultationType: "bidding"})
	require.NoError(t, err)

	// Recorder failures do not fail the blob write.
	updated, err := s.UpdateConsultationStatus(context.Background(), c.ID, "contacted")
	require.NoError(t, err)
	assert.Equal(t, "contacted", updated.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
