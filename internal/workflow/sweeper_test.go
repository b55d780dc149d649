// internal/workflow/sweeper_test.go
package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

func TestRunSweeper_ExecutesDueStepsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	instances := store.NewCollection[models.WorkflowInstance](rdb, store.WorkflowInstances, nil)
	require.NoError(t, instances.Save(context.Background(), []models.WorkflowInstance{{
		ID:     "wf_1",
		LeadID: "lead_1",
		Status: models.WorkflowActive,
		Steps: []models.StepInstance{{
			WorkflowStep: models.WorkflowStep{ID: "1", Action: "noop"},
			Status:       models.StepPending,
			ScheduledFor: models.Timestamp(start),
		}},
	}}))

	engine := NewEngine(NewCatalog(), instances, nil, nil, nil, logger.NewNoOpLogger()).
		WithClock(func() time.Time { return start.Add(time.Minute) }, store.SequentialIDs())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSweeper(ctx, engine, 10*time.Millisecond, logger.NewNoOpLogger())
	}()

	assert.Eventually(t, func() bool {
		inst, err := engine.Get(context.Background(), "wf_1")
		return err == nil && inst.Status == models.WorkflowCompleted
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
