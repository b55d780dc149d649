// internal/workers/hud/generate-property-description/config.go
package generatepropertydescription

import "time"

type Config struct {
	AIEnabled bool
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AIEnabled: true,
		Timeout:   30 * time.Second,
	}
}
