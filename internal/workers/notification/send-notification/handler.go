// internal/workers/notification/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "usahud-crm/internal/common/errors"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/models"
)

const (
	TaskType = "send-notification"
)

// Notifier sends the admin alerts for new CRM records.
type Notifier interface {
	NotifyNewCustomer(ctx context.Context, c models.Customer) models.NotificationResult
	NotifyConsultation(ctx context.Context, c models.Consultation) models.NotificationResult
	NotifyLead(ctx context.Context, l models.Lead) models.NotificationResult
}

type Handler struct {
	config   *Config
	notifier Notifier
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, notifier Notifier, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		notifier: notifier,
		errors:   apperrors.NewErrorHandler(l),
		logger:   l,
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
	var result models.NotificationResult
	switch input.Event {
	case models.EventNewCustomer:
		if input.Customer == nil {
			return nil, apperrors.NewInvalidInputError("customer is required for " + string(input.Event))
		}
		result = h.notifier.NotifyNewCustomer(ctx, *input.Customer)
	case models.EventNewConsultation:
		if input.Consultation == nil {
			return nil, apperrors.NewInvalidInputError("consultation is required for " + string(input.Event))
		}
		result = h.notifier.NotifyConsultation(ctx, *input.Consultation)
	case models.EventNewLead:
		if input.Lead == nil {
			return nil, apperrors.NewInvalidInputError("lead is required for " + string(input.Event))
		}
		result = h.notifier.NotifyLead(ctx, *input.Lead)
	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unsupported event %q", input.Event))
	}

	status := StatusSent
	if !result.Success {
		status = StatusFailed
		h.logger.Warn("notification not delivered", map[string]interface{}{
			"event": string(input.Event),
			"error": result.Error,
		})
	}

	return &Output{
		NotificationID: result.NotificationID,
		Status:         status,
		MessageID:      result.MessageID,
		SMSSent:        result.SMSSent,
		SentAt:         result.SentAt,
		Error:          result.Error,
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
		"jobKey": job.Key,
		"status": output.Status,
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
