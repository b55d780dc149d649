// cmd/worker-manager/workers.go
package main

import (
	"time"

	"github.com/redis/go-redis/v9"

	"usahud-crm/internal/common/camunda"
	"usahud-crm/internal/common/config"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/hud"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/notification"
	"usahud-crm/internal/workflow"

	classifypriority "usahud-crm/internal/workers/crm/classify-priority"
	generatepropertydescription "usahud-crm/internal/workers/hud/generate-property-description"
	calculatematchscore "usahud-crm/internal/workers/matching/calculate-match-score"
	searchproperties "usahud-crm/internal/workers/matching/search-properties"
	sendnotification "usahud-crm/internal/workers/notification/send-notification"
	processscheduledworkflows "usahud-crm/internal/workers/workflow/process-scheduled-workflows"
)

type workerDeps struct {
	dispatcher *notification.Dispatcher
	redis      redis.Cmdable
	source     matching.PropertySource
	engine     *workflow.Engine
	describer  *hud.Enhancer
}

// registrations builds one handler per job type. Per-worker settings from
// config override the package defaults.
func registrations(cfg *config.Config, deps workerDeps, log logger.Logger) []camunda.Registration {
	notifyCfg := sendnotification.LoadConfig()
	priorityCfg := classifypriority.LoadConfig()
	if t := cfg.Notifications.SMS.PriorityThreshold; t != "" {
		priorityCfg.SMSThreshold = t
	}
	scoreCfg := calculatematchscore.LoadConfig()
	searchCfg := searchproperties.LoadConfig()
	sweepCfg := processscheduledworkflows.LoadConfig()
	describeCfg := generatepropertydescription.LoadConfig()

	overrideTimeout(cfg, sendnotification.TaskType, &notifyCfg.Timeout)
	overrideTimeout(cfg, classifypriority.TaskType, &priorityCfg.Timeout)
	overrideTimeout(cfg, calculatematchscore.TaskType, &scoreCfg.Timeout)
	overrideTimeout(cfg, searchproperties.TaskType, &searchCfg.Timeout)
	overrideTimeout(cfg, processscheduledworkflows.TaskType, &sweepCfg.Timeout)
	overrideTimeout(cfg, generatepropertydescription.TaskType, &describeCfg.Timeout)

	var describer generatepropertydescription.Describer
	if deps.describer != nil {
		describer = deps.describer
	} else {
		describeCfg.AIEnabled = false
	}

	return []camunda.Registration{
		{
			TaskType: sendnotification.TaskType,
			Handler:  sendnotification.NewHandler(notifyCfg, deps.dispatcher, log),
		},
		{
			TaskType: classifypriority.TaskType,
			Handler:  classifypriority.NewHandler(priorityCfg, deps.redis, log),
		},
		{
			TaskType: calculatematchscore.TaskType,
			Handler:  calculatematchscore.NewHandler(scoreCfg, log),
		},
		{
			TaskType: searchproperties.TaskType,
			Handler:  searchproperties.NewHandler(searchCfg, deps.source, log),
		},
		{
			TaskType: processscheduledworkflows.TaskType,
			Handler:  processscheduledworkflows.NewHandler(sweepCfg, deps.engine, log),
		},
		{
			TaskType: generatepropertydescription.TaskType,
			Handler:  generatepropertydescription.NewHandler(describeCfg, describer, log),
		},
	}
}

func overrideTimeout(cfg *config.Config, taskType string, dst *time.Duration) {
	wc := config.GetWorkerConfig(cfg, taskType)
	if wc.Timeout > 0 {
		*dst = config.GetDuration(wc.Timeout)
	}
}
