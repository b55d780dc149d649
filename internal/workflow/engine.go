// internal/workflow/engine.go
package workflow

import (
	"context"
	"sort"
	"time"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/metrics"
	"usahud-crm/internal/models"
	"usahud-crm/internal/store"
)

// LeadSource reloads lead data for scheduled steps.
type LeadSource interface {
	GetLead(ctx context.Context, id string) (*models.Lead, error)
}

// Engine runs preset workflows against leads. It never schedules itself:
// due steps run when ProcessScheduled is called.
type Engine struct {
	catalog   *Catalog
	instances *store.Collection[models.WorkflowInstance]
	messenger Messenger
	matcher   PropertyMatcher
	leads     LeadSource
	logger    logger.Logger
	now       func() time.Time
	newID     store.IDFunc
}

func NewEngine(
	catalog *Catalog,
	instances *store.Collection[models.WorkflowInstance],
	messenger Messenger,
	matcher PropertyMatcher,
	leads LeadSource,
	log logger.Logger,
) *Engine {
	return &Engine{
		catalog:   catalog,
		instances: instances,
		messenger: messenger,
		matcher:   matcher,
		leads:     leads,
		logger:    log.WithFields(map[string]interface{}{"component": "workflow"}),
		now:       time.Now,
		newID:     store.NewID,
	}
}

// WithClock overrides time and id sources.
func (e *Engine) WithClock(now func() time.Time, newID store.IDFunc) *Engine {
	e.now = now
	e.newID = newID
	return e
}

// Presets lists the available workflow presets.
func (e *Engine) Presets() []models.WorkflowPreset {
	return e.catalog.List()
}

func scheduleAt(now time.Time, delayHours float64) string {
	return models.Timestamp(now.Add(time.Duration(delayHours * float64(time.Hour))))
}

// Start creates an instance of the preset for lead and runs its first step.
func (e *Engine) Start(ctx context.Context, workflowID string, lead models.Lead, brokerID string) (*models.WorkflowInstance, error) {
	preset, ok := e.catalog.Get(workflowID)
	if !ok {
		return nil, apperrors.NewWorkflowNotFoundError(workflowID)
	}

	now := e.now()
	inst := models.WorkflowInstance{
		ID:         e.newID("wf"),
		WorkflowID: workflowID,
		LeadID:     lead.ID,
		BrokerID:   brokerID,
		Status:     models.WorkflowActive,
		Steps:      make([]models.StepInstance, len(preset.Steps)),
		StartedAt:  models.Timestamp(now),
	}
	for i, step := range preset.Steps {
		inst.Steps[i] = models.StepInstance{WorkflowStep: step, Status: models.StepWaiting}
	}
	if len(inst.Steps) > 0 {
		inst.Steps[0].Status = models.StepPending
		inst.Steps[0].ScheduledFor = scheduleAt(now, inst.Steps[0].Delay)
	}

	if err := e.instances.Append(ctx, inst); err != nil {
		return nil, err
	}
	e.logger.Info("Workflow started", map[string]interface{}{
		"instanceId": inst.ID,
		"workflowId": workflowID,
		"leadId":     lead.ID,
	})

	if len(inst.Steps) == 0 {
		inst.Status = models.WorkflowCompleted
		inst.CompletedAt = models.Timestamp(now)
		return &inst, e.save(ctx, &inst)
	}
	if _, err := e.ExecuteStep(ctx, &inst, 0, lead); err != nil {
		return &inst, err
	}
	return &inst, nil
}

// ExecuteStep runs the step at index and advances the instance. Following
// steps with no delay run in the same call, in order. A failed step halts
// the instance: nothing further is scheduled. The result is the last step's.
func (e *Engine) ExecuteStep(ctx context.Context, inst *models.WorkflowInstance, index int, lead models.Lead) (models.StepResult, error) {
	if index < 0 || index >= len(inst.Steps) {
		return models.StepResult{}, apperrors.NewStepNotFoundError(index)
	}

	var result models.StepResult
	for {
		step := &inst.Steps[index]
		step.Status = models.StepExecuting
		step.StartedAt = models.Timestamp(e.now())
		inst.CurrentStep = index
		if err := e.save(ctx, inst); err != nil {
			return models.StepResult{}, err
		}

		result = e.actionFor(step.Action)(ctx, lead, inst.BrokerID)

		status := models.StepCompleted
		if !result.Success {
			status = models.StepFailed
		}
		now := e.now()
		step.Status = status
		step.CompletedAt = models.Timestamp(now)
		stepResult := result
		step.Result = &stepResult
		metrics.WorkflowStepsExecuted.WithLabelValues(step.Action, status).Inc()

		fields := map[string]interface{}{
			"instanceId": inst.ID,
			"step":       index,
			"action":     step.Action,
			"status":     status,
		}
		if !result.Success {
			fields["error"] = result.Error
			e.logger.Warn("Workflow step failed", fields)
			break
		}
		e.logger.Debug("Workflow step completed", fields)

		if index+1 >= len(inst.Steps) {
			inst.Status = models.WorkflowCompleted
			inst.CompletedAt = models.Timestamp(now)
			break
		}

		index++
		next := &inst.Steps[index]
		next.Status = models.StepPending
		next.ScheduledFor = scheduleAt(now, next.Delay)
		inst.CurrentStep = index
		if next.Delay > 0 {
			break
		}
	}

	if err := e.save(ctx, inst); err != nil {
		return result, err
	}
	return result, nil
}

// ProcessScheduled runs, for every active instance, the first pending step
// that is due. One step per instance per call.
func (e *Engine) ProcessScheduled(ctx context.Context) (models.SweepResult, error) {
	var res models.SweepResult
	metrics.WorkflowSweeps.Inc()

	all, err := e.instances.Load(ctx)
	if err != nil {
		return res, err
	}

	now := e.now()
	for i := range all {
		inst := all[i]
		if inst.Status != models.WorkflowActive {
			continue
		}
		res.Checked++

		idx := dueStep(inst, now)
		if idx < 0 {
			continue
		}

		lead := e.loadLead(ctx, inst.LeadID)
		result, err := e.ExecuteStep(ctx, &inst, idx, lead)
		if err != nil {
			return res, err
		}
		res.Executed++
		if !result.Success {
			res.Failed++
		}
	}

	if res.Executed > 0 {
		e.logger.Info("Scheduled workflows processed", map[string]interface{}{
			"checked":  res.Checked,
			"executed": res.Executed,
			"failed":   res.Failed,
		})
	}
	return res, nil
}

func dueStep(inst models.WorkflowInstance, now time.Time) int {
	for i, step := range inst.Steps {
		if step.Status != models.StepPending {
			continue
		}
		at, err := models.ParseTimestamp(step.ScheduledFor)
		if err != nil || !at.After(now) {
			return i
		}
		return -1
	}
	return -1
}

func (e *Engine) loadLead(ctx context.Context, id string) models.Lead {
	if e.leads != nil {
		lead, err := e.leads.GetLead(ctx, id)
		if err == nil && lead != nil {
			return *lead
		}
		if err != nil && !apperrors.HasCode(err, apperrors.ErrCodeLeadNotFound) {
			e.logger.Warn("Failed to load lead for workflow step", map[string]interface{}{
				"leadId": id,
				"error":  err.Error(),
			})
		}
	}
	return models.Lead{ID: id}
}

// Get returns one instance.
func (e *Engine) Get(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	inst, ok, err := e.instances.Find(ctx, func(w models.WorkflowInstance) bool { return w.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewWorkflowInstanceNotFoundError(id)
	}
	return &inst, nil
}

// LeadWorkflows lists a lead's instances, newest first.
func (e *Engine) LeadWorkflows(ctx context.Context, leadID string) ([]models.WorkflowInstance, error) {
	items, err := e.instances.Filter(ctx, func(w models.WorkflowInstance) bool { return w.LeadID == leadID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].StartedAt > items[j].StartedAt })
	return items, nil
}

// Pause stops an active instance from running scheduled steps.
func (e *Engine) Pause(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return e.transition(ctx, id, func(w *models.WorkflowInstance, now string) error {
		if w.Status != models.WorkflowActive {
			return apperrors.NewInvalidWorkflowStateError("cannot pause a " + w.Status + " workflow")
		}
		w.Status = models.WorkflowPaused
		w.PausedAt = now
		return nil
	})
}

// Resume reactivates a paused instance.
func (e *Engine) Resume(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return e.transition(ctx, id, func(w *models.WorkflowInstance, now string) error {
		if w.Status != models.WorkflowPaused {
			return apperrors.NewInvalidWorkflowStateError("cannot resume a " + w.Status + " workflow")
		}
		w.Status = models.WorkflowActive
		w.ResumedAt = now
		return nil
	})
}

// Cancel ends an active or paused instance.
func (e *Engine) Cancel(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return e.transition(ctx, id, func(w *models.WorkflowInstance, now string) error {
		if w.Status != models.WorkflowActive && w.Status != models.WorkflowPaused {
			return apperrors.NewInvalidWorkflowStateError("cannot cancel a " + w.Status + " workflow")
		}
		w.Status = models.WorkflowCancelled
		w.CancelledAt = now
		return nil
	})
}

func (e *Engine) transition(ctx context.Context, id string, fn func(*models.WorkflowInstance, string) error) (*models.WorkflowInstance, error) {
	var out models.WorkflowInstance
	err := e.instances.Update(ctx, func(items []models.WorkflowInstance) ([]models.WorkflowInstance, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if err := fn(&items[i], models.Timestamp(e.now())); err != nil {
				return nil, err
			}
			out = items[i]
			return items, nil
		}
		return nil, apperrors.NewWorkflowInstanceNotFoundError(id)
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("Workflow status changed", map[string]interface{}{"instanceId": id, "status": out.Status})
	return &out, nil
}

// save replaces the stored copy of inst. Instances deleted meanwhile stay deleted.
func (e *Engine) save(ctx context.Context, inst *models.WorkflowInstance) error {
	return e.instances.Update(ctx, func(items []models.WorkflowInstance) ([]models.WorkflowInstance, error) {
		for i := range items {
			if items[i].ID == inst.ID {
				items[i] = *inst
				break
			}
		}
		return items, nil
	})
}
