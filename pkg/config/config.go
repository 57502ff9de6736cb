// Package config loads service configuration from an optional YAML
// file overridden by MIRAGE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	// HTTPPort is the API listen port.
	HTTPPort int `yaml:"http_port"`

	// LLMURL is the base URL of the LLM completion service.
	LLMURL string `yaml:"llm_url"`
	// LLMModel selects the model; empty uses the service default.
	LLMModel string `yaml:"llm_model"`
	// RetrievalURL is the base URL of the retrieval service.
	RetrievalURL string `yaml:"retrieval_url"`
	// RetrievalTopK is the number of documents fetched per query.
	RetrievalTopK int `yaml:"retrieval_top_k"`

	// MaxIterations bounds the verify/reform loop.
	MaxIterations int `yaml:"max_iterations"`
	// ApproveThreshold is the confidence floor for unflagged approval.
	ApproveThreshold float64 `yaml:"approve_threshold"`
	// RejectThreshold is the confidence ceiling that forces a reform.
	RejectThreshold float64 `yaml:"reject_threshold"`
	// WorkflowTimeout bounds one end-to-end workflow.
	WorkflowTimeout time.Duration `yaml:"workflow_timeout"`

	// AgentMaxAttempts is the total LLM attempts per agent call.
	AgentMaxAttempts int `yaml:"agent_max_attempts"`
	// AgentBaseDelay is the initial retry backoff delay.
	AgentBaseDelay time.Duration `yaml:"agent_base_delay"`
	// AgentCallTimeout bounds one LLM attempt.
	AgentCallTimeout time.Duration `yaml:"agent_call_timeout"`
	// AgentMaxTokens caps the completion length.
	AgentMaxTokens int `yaml:"agent_max_tokens"`

	// CacheTTL is the response cache entry lifetime.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// CacheSweepInterval is the expired-entry reap period.
	CacheSweepInterval time.Duration `yaml:"cache_sweep_interval"`

	// ValidationTimeout is how long a human decision may stay pending.
	ValidationTimeout time.Duration `yaml:"validation_timeout"`

	// AuditDatabaseURL enables the Postgres audit sink when set.
	AuditDatabaseURL string `yaml:"audit_database_url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPPort:           8080,
		LLMURL:             "http://localhost:8000",
		RetrievalURL:       "http://localhost:8001",
		RetrievalTopK:      5,
		MaxIterations:      3,
		ApproveThreshold:   0.7,
		RejectThreshold:    0.3,
		WorkflowTimeout:    120 * time.Second,
		AgentMaxAttempts:   3,
		AgentBaseDelay:     time.Second,
		AgentCallTimeout:   30 * time.Second,
		AgentMaxTokens:     2048,
		CacheTTL:           time.Hour,
		CacheSweepInterval: 5 * time.Minute,
		ValidationTimeout:  time.Hour,
		LogLevel:           "info",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// MIRAGE_CONFIG_FILE (if any), then MIRAGE_* environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("MIRAGE_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var err error
	intVar(&cfg.HTTPPort, "MIRAGE_HTTP_PORT", &err)
	strVar(&cfg.LLMURL, "MIRAGE_LLM_URL")
	strVar(&cfg.LLMModel, "MIRAGE_LLM_MODEL")
	strVar(&cfg.RetrievalURL, "MIRAGE_RETRIEVAL_URL")
	intVar(&cfg.RetrievalTopK, "MIRAGE_RETRIEVAL_TOP_K", &err)
	intVar(&cfg.MaxIterations, "MIRAGE_MAX_ITERATIONS", &err)
	floatVar(&cfg.ApproveThreshold, "MIRAGE_APPROVE_THRESHOLD", &err)
	floatVar(&cfg.RejectThreshold, "MIRAGE_REJECT_THRESHOLD", &err)
	durVar(&cfg.WorkflowTimeout, "MIRAGE_WORKFLOW_TIMEOUT", &err)
	intVar(&cfg.AgentMaxAttempts, "MIRAGE_AGENT_MAX_ATTEMPTS", &err)
	durVar(&cfg.AgentBaseDelay, "MIRAGE_AGENT_BASE_DELAY", &err)
	durVar(&cfg.AgentCallTimeout, "MIRAGE_AGENT_CALL_TIMEOUT", &err)
	intVar(&cfg.AgentMaxTokens, "MIRAGE_AGENT_MAX_TOKENS", &err)
	durVar(&cfg.CacheTTL, "MIRAGE_CACHE_TTL", &err)
	durVar(&cfg.CacheSweepInterval, "MIRAGE_CACHE_SWEEP_INTERVAL", &err)
	durVar(&cfg.ValidationTimeout, "MIRAGE_VALIDATION_TIMEOUT", &err)
	strVar(&cfg.AuditDatabaseURL, "MIRAGE_AUDIT_DATABASE_URL")
	strVar(&cfg.LogLevel, "MIRAGE_LOG_LEVEL")
	if err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port out of range: %d", c.HTTPPort)
	}
	if c.LLMURL == "" {
		return fmt.Errorf("llm_url is required")
	}
	if c.RetrievalURL == "" {
		return fmt.Errorf("retrieval_url is required")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1")
	}
	if c.ApproveThreshold < 0 || c.ApproveThreshold > 1 {
		return fmt.Errorf("approve_threshold out of [0,1]: %g", c.ApproveThreshold)
	}
	if c.RejectThreshold < 0 || c.RejectThreshold > 1 {
		return fmt.Errorf("reject_threshold out of [0,1]: %g", c.RejectThreshold)
	}
	if c.RejectThreshold >= c.ApproveThreshold {
		return fmt.Errorf("reject_threshold %g must be below approve_threshold %g",
			c.RejectThreshold, c.ApproveThreshold)
	}
	if c.AgentMaxAttempts < 1 {
		return fmt.Errorf("agent_max_attempts must be at least 1")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

func strVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string, err *error) {
	v := os.Getenv(key)
	if v == "" || *err != nil {
		return
	}
	n, perr := strconv.Atoi(v)
	if perr != nil {
		*err = fmt.Errorf("%s: %w", key, perr)
		return
	}
	*dst = n
}

func floatVar(dst *float64, key string, err *error) {
	v := os.Getenv(key)
	if v == "" || *err != nil {
		return
	}
	f, perr := strconv.ParseFloat(v, 64)
	if perr != nil {
		*err = fmt.Errorf("%s: %w", key, perr)
		return
	}
	*dst = f
}

func durVar(dst *time.Duration, key string, err *error) {
	v := os.Getenv(key)
	if v == "" || *err != nil {
		return
	}
	d, perr := time.ParseDuration(v)
	if perr != nil {
		*err = fmt.Errorf("%s: %w", key, perr)
		return
	}
	*dst = d
}
