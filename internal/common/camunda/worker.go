// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"usahud-crm/internal/common/config"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/metrics"
	"usahud-crm/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
)

// JobHandler is implemented by every task handler under internal/workers.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registration describes one job worker to open.
type Registration struct {
	TaskType string
	Handler  JobHandler
}

// instrumented records a span, a duration and a processed count per job.
type instrumented struct {
	taskType string
	next     JobHandler
	obs      *observability.Observability
}

// Instrument wraps h so every job is traced and timed. A nil obs still
// feeds the Prometheus duration histogram.
func Instrument(taskType string, h JobHandler, obs *observability.Observability) JobHandler {
	return &instrumented{taskType: taskType, next: h, obs: obs}
}

func (i *instrumented) Handle(client worker.JobClient, job entities.Job) {
	ctx, span := i.obs.StartSpan(context.Background(), i.taskType,
		attribute.Int64("job.key", job.Key),
		attribute.Int64("process.instance.key", job.ProcessInstanceKey),
	)
	defer span.End()

	start := time.Now()
	i.next.Handle(client, job)
	elapsed := time.Since(start)

	metrics.WorkerJobDuration.WithLabelValues(i.taskType).Observe(elapsed.Seconds())
	metrics.WorkerJobsCompleted.WithLabelValues(i.taskType).Inc()
	i.obs.RecordJobDuration(ctx, i.taskType, elapsed)
	i.obs.RecordJobProcessed(ctx, i.taskType, "handled")
}

// OpenWorkers opens a job worker per enabled registration and returns them
// so the caller can close them on shutdown.
func OpenWorkers(client zbc.Client, cfg *config.Config, regs []Registration, obs *observability.Observability, log logger.Logger) []worker.JobWorker {
	opened := make([]worker.JobWorker, 0, len(regs))

	for _, reg := range regs {
		wcfg := config.GetWorkerConfig(cfg, reg.TaskType)
		if !wcfg.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": reg.TaskType})
			continue
		}

		w := client.NewJobWorker().
			JobType(reg.TaskType).
			Handler(Instrument(reg.TaskType, reg.Handler, obs).Handle).
			MaxJobsActive(wcfg.MaxJobsActive).
			Timeout(config.GetDuration(wcfg.Timeout)).
			Open()
		opened = append(opened, w)

		log.Info("worker started", map[string]interface{}{
			"taskType":      reg.TaskType,
			"maxJobsActive": wcfg.MaxJobsActive,
			"timeoutMs":     wcfg.Timeout,
		})
	}

	return opened
}
