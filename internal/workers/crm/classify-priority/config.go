// internal/workers/crm/classify-priority/config.go
package classifypriority

import "time"

type Config struct {
	CacheTTL     time.Duration
	SMSThreshold string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL:     30 * time.Minute,
		SMSThreshold: "high",
		Timeout:      10 * time.Second,
	}
}
