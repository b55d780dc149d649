// internal/workers/matching/calculate-match-score/config.go
package calculatematchscore

import "time"

type Config struct {
	// MaxResults caps the scored list; 0 keeps everything.
	MaxResults int
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxResults: 10,
		Timeout:    30 * time.Second,
	}
}
