// internal/workers/workflow/process-scheduled-workflows/handler.go
package processscheduledworkflows

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
)

const (
	TaskType = "process-scheduled-workflows"
)

// Sweeper executes every due workflow step.
type Sweeper interface {
	ProcessScheduled(ctx context.Context) (models.SweepResult, error)
}

type Handler struct {
	config  *Config
	sweeper Sweeper
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, sweeper Sweeper, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		sweeper: sweeper,
		errors:  apperrors.NewErrorHandler(l),
		logger:  l,
		now:     time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, _ *Input) (*Output, error) {
	res, err := h.sweeper.ProcessScheduled(ctx)
	if err != nil {
		return nil, err
	}

	if res.Failed > 0 {
		h.logger.Warn("scheduled sweep had failures", map[string]interface{}{
			"checked":  res.Checked,
			"executed": res.Executed,
			"failed":   res.Failed,
		})
	}

	return &Output{
		Checked:     res.Checked,
		Executed:    res.Executed,
		Failed:      res.Failed,
		ProcessedAt: h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		h.failJob(client, job, "INTERNAL_ERROR", err.Error())
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":   job.Key,
		"executed": output.Executed,
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send throw error command", map[string]interface{}{
			"error": err,
		})
	}
}
