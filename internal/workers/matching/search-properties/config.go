// internal/workers/matching/search-properties/config.go
package searchproperties

import "time"

type Config struct {
	DefaultLimit int
	MaxLimit     int
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultLimit: 20,
		MaxLimit:     100,
		Timeout:      30 * time.Second,
	}
}
