// internal/workers/matching/calculate-match-score/handler.go
package calculatematchscore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
)

const (
	TaskType = "calculate-match-score"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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
		bpmnErr := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
		h.failJob(client, job, bpmnErr.Code, bpmnErr.Message)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MinScore < 0 || input.MinScore > matching.MaxScore {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("minScore must be between 0 and %d", matching.MaxScore))
	}

	scored := matching.ScoreAll(input.Properties, input.Preferences)

	matches := make([]models.ScoredProperty, 0, len(scored))
	for _, s := range scored {
		if s.MatchScore < input.MinScore {
			break
		}
		matches = append(matches, s)
	}
	if h.config.MaxResults > 0 && len(matches) > h.config.MaxResults {
		matches = matches[:h.config.MaxResults]
	}

	output := &Output{
		Matches:     matches,
		TotalScored: len(scored),
	}
	if len(matches) > 0 {
		output.TopScore = matches[0].MatchScore
	}

	h.logger.Debug("match scores calculated", map[string]interface{}{
		"scored":   len(scored),
		"returned": len(matches),
		"topScore": output.TopScore,
	})
	return output, nil
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
		"jobKey":  job.Key,
		"matches": len(output.Matches),
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
