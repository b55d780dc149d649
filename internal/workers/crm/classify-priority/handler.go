// internal/workers/crm/classify-priority/handler.go
package classifypriority

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
	"usahud-crm/internal/notification"
)

const (
	TaskType = "classify-priority"
)

type Handler struct {
	config *Config
	redis  redis.Cmdable
	logger logger.Logger
}

func NewHandler(config *Config, rdb redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		h.failJob(client, job, "PRIORITY_CLASSIFICATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	priority, cached := h.classify(ctx, input)

	h.logger.Info("priority classified", map[string]interface{}{
		"consultationId":   input.ConsultationID,
		"consultationType": input.ConsultationType,
		"priority":         string(priority),
		"cached":           cached,
	})

	return &Output{
		Priority:    priority,
		SMSEligible: notification.MeetsThreshold(priority, h.config.SMSThreshold),
		Cached:      cached,
	}, nil
}

// classify reads a previous classification for the consultation before
// computing a fresh one. Cache failures only cost the lookup.
func (h *Handler) classify(ctx context.Context, input *Input) (models.Priority, bool) {
	if input.ConsultationID == "" || h.redis == nil {
		return notification.ClassifyPriority(input.ConsultationType, input.PropertyID), false
	}

	cacheKey := cacheKeyPrefix + input.ConsultationID
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		return models.Priority(val), true
	}

	priority := notification.ClassifyPriority(input.ConsultationType, input.PropertyID)
	if err := h.redis.Set(ctx, cacheKey, string(priority), h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("failed to cache priority", map[string]interface{}{
			"consultationId": input.ConsultationID,
			"error":          err.Error(),
		})
	}
	return priority, false
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
		"priority": string(output.Priority),
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
