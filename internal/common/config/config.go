// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Workflow      WorkflowConfig          `mapstructure:"workflow"`
	HUD           HUDConfig               `mapstructure:"hud"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// BaseURL is the public site origin used in links (verification, shared properties).
	BaseURL string `mapstructure:"base_url"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	PropertyIndex string   `mapstructure:"property_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// KeyPrefix namespaces the collection keys (usahud_customers, workflow_instances...).
	KeyPrefix string `mapstructure:"key_prefix"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds settings for AWS and the social messaging relays.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`

	Resend struct {
		APIKey  string `mapstructure:"api_key"`
		From    string `mapstructure:"from"`
		ReplyTo string `mapstructure:"reply_to"`
	} `mapstructure:"resend"`

	// Social relays accept {to, message} JSON. Empty URL means the channel is off.
	Social struct {
		FacebookURL  string `mapstructure:"facebook_url"`
		InstagramURL string `mapstructure:"instagram_url"`
		WhatsAppURL  string `mapstructure:"whatsapp_url"`
	} `mapstructure:"social"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	OpenAI struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Model   string `mapstructure:"model"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"openai"`
}

// NotificationConfig holds settings for notification dispatch.
type NotificationConfig struct {
	Email struct {
		Enabled bool `mapstructure:"enabled"`
		// Provider selects the transport: endpoint, ses or resend.
		Provider   string `mapstructure:"provider"`
		FromEmail  string `mapstructure:"from_email"`
		AdminEmail string `mapstructure:"admin_email"`
		Endpoint   string `mapstructure:"endpoint"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"email"`
	SMS struct {
		Enabled           bool   `mapstructure:"enabled"`
		PriorityThreshold string `mapstructure:"priority_threshold"`
		// BrokerPhone receives SNS alerts for consultations at or above the threshold.
		BrokerPhone string `mapstructure:"broker_phone"`
		// GatewayEmail receives consultation alerts as carrier email-to-SMS.
		GatewayEmail string `mapstructure:"gateway_email"`
	} `mapstructure:"sms"`
}

// WorkflowConfig drives the optional background sweep.
type WorkflowConfig struct {
	SweepInterval int    `mapstructure:"sweep_interval"` // milliseconds, 0 disables
	RegistryPath  string `mapstructure:"registry_path"`
}

// HUDConfig holds scraper settings.
type HUDConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	States      []string `mapstructure:"states"`
	Concurrency int      `mapstructure:"concurrency"`
	Timeout     int      `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig enables span export. An empty endpoint keeps tracing local.
type TracingConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
