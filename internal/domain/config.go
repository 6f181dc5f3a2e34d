package domain

import "time"

// Config holds the complete ClaimGuard configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Tier determines feature availability
	Tier Tier `json:"tier"`

	// Policy points at the rule catalog loaded at startup
	Policy PolicyConfig `json:"policy"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`
	EventBus   EventBusConfig   `json:"eventBus"`
	Worker     WorkerConfig     `json:"worker"`

	// External collaborators
	Extraction ProviderConfig `json:"extraction"`
	Review     ProviderConfig `json:"review"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// PolicyConfig locates the rule catalog.
type PolicyConfig struct {
	// RulesPath is a JSON or YAML rule catalog
	RulesPath string `json:"rulesPath"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds

	// MaxUploadBytes caps receipt uploads on POST /analyze
	MaxUploadBytes int64 `json:"maxUploadBytes"`
}

// WorkerConfig controls the async adjudication worker.
type WorkerConfig struct {
	Enabled bool `json:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool   `json:"enabled"`
	ServiceName  string `json:"serviceName"`
	ExporterType string `json:"exporterType"` // otlp, none
	Endpoint     string `json:"endpoint"`
}

// Tier represents the product tier.
type Tier string

const (
	// TierCommunity runs on SQLite + channels + in-process cache
	TierCommunity Tier = "community"

	// TierPro runs on PostgreSQL + NATS + Redis
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			ReadTimeout:    30,
			WriteTimeout:   60,
			MaxUploadBytes: 10 << 20,
		},
		Tier: TierCommunity,
		Policy: PolicyConfig{
			RulesPath: "./configs/policy_rules.json",
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./claimguard.db",
		},
		Cache: CacheConfig{
			Type:      "memory",
			LocalTTL:  5 * time.Minute,
			ResultTTL: time.Hour,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Extraction: ProviderConfig{
			Provider: "file",
			MockPath: "./configs/claim_sample.json",
			Timeout:  60,
		},
		Review: ProviderConfig{
			Provider: "mock",
			Timeout:  30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "claimguard",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "claimguard",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalTTL:       time.Minute,
		ResultTTL:      24 * time.Hour,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
		NATSQueueGroup:    "claimguard-workers",
	}
	cfg.Worker.Enabled = true
	cfg.Extraction = ProviderConfig{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		Timeout:           60,
		MaxTokens:         2000,
		RequestsPerSecond: 2,
	}
	cfg.Review = ProviderConfig{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		Timeout:           30,
		MaxTokens:         1000,
		RequestsPerSecond: 2,
	}
	cfg.Tracing.Enabled = true
	return cfg
}
