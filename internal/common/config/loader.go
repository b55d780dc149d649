// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultHUDStates is the scrape list used when hud.states is empty.
var DefaultHUDStates = []string{"NC", "SC", "GA", "FL", "TX", "CA", "OH", "MI", "PA", "NY"}

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// RESEND_API_KEY style overrides for nested keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional per-environment overlay

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // test/e2e
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the conventional env names the
// hosted deployment already uses.
func overrideEmptyConfig(cfg *Config) {
	envOverride(&cfg.Integrations.Resend.APIKey, "RESEND_API_KEY")
	envOverride(&cfg.APIs.OpenAI.APIKey, "OPENAI_API_KEY")
	envOverride(&cfg.Notifications.SMS.GatewayEmail, "BROKER_SMS_GATEWAY")
	envOverride(&cfg.Notifications.SMS.BrokerPhone, "BROKER_PHONE")
	envOverride(&cfg.Notifications.Email.AdminEmail, "ADMIN_EMAIL")
	envOverride(&cfg.Database.Postgres.User, "DB_USER")
	envOverride(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

func envOverride(target *string, name string) {
	if *target != "" {
		return
	}
	if val := os.Getenv(name); val != "" {
		*target = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "usahud-crm"
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "https://usahudhomes.com"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.PropertyIndex == "" {
		cfg.Database.Elasticsearch.PropertyIndex = "properties"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Notifications.Email.Provider == "" {
		cfg.Notifications.Email.Provider = "endpoint"
	}
	if cfg.Notifications.Email.FromEmail == "" {
		cfg.Notifications.Email.FromEmail = "noreply@usahudhomes.com"
	}
	if cfg.Notifications.Email.AdminEmail == "" {
		cfg.Notifications.Email.AdminEmail = "marcspencer28461@gmail.com"
	}
	if cfg.Notifications.Email.Timeout == 0 {
		cfg.Notifications.Email.Timeout = 10000
	}
	if cfg.Notifications.SMS.PriorityThreshold == "" {
		cfg.Notifications.SMS.PriorityThreshold = "high"
	}
	if cfg.Integrations.Resend.From == "" {
		cfg.Integrations.Resend.From = "USA HUD Homes <noreply@usahudhomes.com>"
	}

	if cfg.APIs.OpenAI.BaseURL == "" {
		cfg.APIs.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIs.OpenAI.Model == "" {
		cfg.APIs.OpenAI.Model = "gpt-4.1-mini"
	}
	if cfg.APIs.OpenAI.Timeout == 0 {
		cfg.APIs.OpenAI.Timeout = 60000
	}

	if cfg.HUD.BaseURL == "" {
		cfg.HUD.BaseURL = "https://www.hudhomestore.gov"
	}
	if len(cfg.HUD.States) == 0 {
		cfg.HUD.States = append([]string(nil), DefaultHUDStates...)
	}
	if cfg.HUD.Concurrency == 0 {
		cfg.HUD.Concurrency = 3
	}
	if cfg.HUD.Timeout == 0 {
		cfg.HUD.Timeout = 30000
	}

	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	switch cfg.Notifications.Email.Provider {
	case "endpoint":
		if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.Endpoint == "" {
			return fmt.Errorf("notifications.email.endpoint is required for the endpoint provider")
		}
	case "ses":
		if cfg.Integrations.AWS.Region == "" {
			return fmt.Errorf("integrations.aws.region is required for the ses provider")
		}
	case "resend":
		if cfg.Notifications.Email.Enabled && cfg.Integrations.Resend.APIKey == "" {
			return fmt.Errorf("integrations.resend.api_key is required for the resend provider")
		}
	default:
		return fmt.Errorf("unknown notifications.email.provider %q", cfg.Notifications.Email.Provider)
	}

	if cfg.HUD.Concurrency < 0 {
		return fmt.Errorf("hud.concurrency must not be negative")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
