// internal/workers/workflow/process-scheduled-workflows/handler_test.go
package processscheduledworkflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
)

type fakeSweeper struct {
	result models.SweepResult
	err    error
	calls  int
}

func (f *fakeSweeper) ProcessScheduled(ctx context.Context) (models.SweepResult, error) {
	f.calls++
	return f.result, f.err
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name   string
		result models.SweepResult
	}{
		{name: "nothing due", result: models.SweepResult{Checked: 4}},
		{name: "steps executed", result: models.SweepResult{Checked: 4, Executed: 3}},
		{name: "partial failure", result: models.SweepResult{Checked: 4, Executed: 2, Failed: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := &fakeSweeper{result: tt.result}
			h := NewHandler(LoadConfig(), sw, logger.NewTestLogger(t))
			h.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

			out, err := h.Execute(context.Background(), &Input{})

			require.NoError(t, err)
			assert.Equal(t, 1, sw.calls)
			assert.Equal(t, tt.result.Checked, out.Checked)
			assert.Equal(t, tt.result.Executed, out.Executed)
			assert.Equal(t, tt.result.Failed, out.Failed)
			assert.Equal(t, "2024-03-01T09:30:00Z", out.ProcessedAt)
		})
	}
}

func TestHandler_Execute_StorageError(t *testing.T) {
	sw := &fakeSweeper{err: apperrors.NewStorageReadFailedError("workflow_instances", errors.New("redis down"))}
	h := NewHandler(LoadConfig(), sw, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{})

	assert.Nil(t, out)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageReadFailed))
}
