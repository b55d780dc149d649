// internal/workers/hud/generate-property-description/handler.go
package generatepropertydescription

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
)

const (
	TaskType = "generate-property-description"
)

// Describer writes marketing copy for a listing.
type Describer interface {
	GenerateDescription(ctx context.Context, p models.Property) (string, error)
}

type Handler struct {
	config    *Config
	describer Describer
	logger    logger.Logger
}

// NewHandler wires the worker. A nil describer always uses the template.
func NewHandler(config *Config, describer Describer, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		describer: describer,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	p := input.Property
	if p.City == "" || p.State == "" {
		return nil, apperrors.NewInvalidInputError("property city and state are required")
	}

	tmpl := matching.DescribeProperty(p)
	output := &Output{
		Headline:    tmpl.Headline,
		Description: tmpl.Description,
		Highlights:  tmpl.Highlights,
		Source:      SourceTemplate,
	}

	if !h.config.AIEnabled || h.describer == nil {
		output.FallbackReason = "ai disabled"
		return output, nil
	}

	text, err := h.describer.GenerateDescription(ctx, p)
	switch {
	case err != nil:
		code := string(apperrors.Normalize(err).Code)
		h.logger.Warn("ai description failed, using template", map[string]interface{}{
			"caseNumber": p.CaseNumber,
			"errorCode":  code,
		})
		output.FallbackReason = code
	case strings.TrimSpace(text) == "":
		output.FallbackReason = "empty ai response"
	default:
		output.Description = strings.TrimSpace(text)
		output.Source = SourceAI
	}
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
		"jobKey": job.Key,
		"source": output.Source,
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
