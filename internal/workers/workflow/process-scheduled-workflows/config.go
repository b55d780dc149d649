// internal/workers/workflow/process-scheduled-workflows/config.go
package processscheduledworkflows

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Minute,
	}
}
