// internal/workers/matching/search-properties/handler.go
package searchproperties

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
)

const (
	TaskType = "search-properties"
)

type Handler struct {
	config *Config
	source matching.PropertySource
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, source matching.PropertySource, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		source: source,
		errors: apperrors.NewErrorHandler(l),
		logger: l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	if limit > h.config.MaxLimit {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("limit %d exceeds maximum of %d", limit, h.config.MaxLimit))
	}

	var (
		props     []models.Property
		err       error
		queryType = QueryTypeSearch
	)
	if len(input.PropertyIDs) > 0 {
		queryType = QueryTypeByIDs
		props, err = h.source.GetByIDs(ctx, input.PropertyIDs)
	} else {
		props, err = h.source.Search(ctx, input.Preferences, limit)
	}
	if err != nil {
		return nil, err
	}

	scored := matching.ScoreAll(props, input.Preferences)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	h.logger.Info("property search completed", map[string]interface{}{
		"queryType": queryType,
		"found":     len(props),
		"returned":  len(scored),
		"duration":  time.Since(start).Milliseconds(),
	})

	return &Output{
		Properties: scored,
		TotalFound: len(props),
		QueryType:  queryType,
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
		"jobKey":     job.Key,
		"totalFound": output.TotalFound,
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
