// internal/workflow/sweeper.go
package workflow

import (
	"context"
	"time"

	"usahud-crm/internal/common/logger"
)

// RunSweeper calls ProcessScheduled every interval until ctx is done.
func RunSweeper(ctx context.Context, e *Engine, interval time.Duration, log logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Workflow sweeper started", map[string]interface{}{"interval": interval.String()})
	for {
		select {
		case <-ctx.Done():
			log.Info("Workflow sweeper stopped", nil)
			return
		case <-ticker.C:
			if _, err := e.ProcessScheduled(ctx); err != nil {
				log.Error("Workflow sweep failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
