package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported text-generation providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ClassifierConfig selects the text-generation provider and its retry policy.
type ClassifierConfig struct {
	Provider                string  `yaml:"provider" mapstructure:"provider"`
	MaxAttempts             int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs        int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs            int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	BackoffMultiplier       float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	CircuitFailureThreshold int     `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// PipelineConfig configures batch enrichment.
type PipelineConfig struct {
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Offline           bool    `yaml:"offline" mapstructure:"offline"`
}

// IngestConfig configures input validation.
type IngestConfig struct {
	MaxRows int `yaml:"max_rows" mapstructure:"max_rows"`
}

// FetchConfig configures remote sources.
type FetchConfig struct {
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FEEDBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("classifier.provider", ProviderOpenAI)
	v.SetDefault("classifier.max_attempts", 3)
	v.SetDefault("classifier.initial_backoff_ms", 1000)
	v.SetDefault("classifier.max_backoff_ms", 30000)
	v.SetDefault("classifier.backoff_multiplier", 2.0)
	v.SetDefault("classifier.circuit_failure_threshold", 5)
	v.SetDefault("classifier.circuit_reset_secs", 30)
	v.SetDefault("pipeline.concurrency", 1)
	v.SetDefault("pipeline.requests_per_second", 2.0)
	v.SetDefault("pipeline.offline", false)
	v.SetDefault("ingest.max_rows", 50000)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.requests_per_second", 5.0)
	v.SetDefault("fetch.user_agent", "feedback-aggregator/1.0")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Conventional provider variables are accepted when the prefixed ones are unset.
	if cfg.OpenAI.Key == "" {
		cfg.OpenAI.Key = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Anthropic.Key == "" {
		cfg.Anthropic.Key = os.Getenv("ANTHROPIC_API_KEY")
	}

	return &cfg, nil
}

// ProviderKey returns the credential of the selected provider, or "" when it
// is not configured.
func (c *Config) ProviderKey() string {
	switch strings.ToLower(c.Classifier.Provider) {
	case ProviderAnthropic:
		return c.Anthropic.Key
	case ProviderOpenAI:
		return c.OpenAI.Key
	default:
		return ""
	}
}

// Validate checks the settings a command mode depends on. A missing
// provider credential is not an error: it selects offline mode.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "enrich":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch strings.ToLower(c.Classifier.Provider) {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		problems = append(problems, fmt.Sprintf("classifier.provider must be %q or %q", ProviderOpenAI, ProviderAnthropic))
	}
	if c.Classifier.MaxAttempts < 1 || c.Classifier.MaxAttempts > 10 {
		problems = append(problems, "classifier.max_attempts must be between 1 and 10")
	}
	if c.Classifier.BackoffMultiplier < 1 {
		problems = append(problems, "classifier.backoff_multiplier must be >= 1")
	}
	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 16 {
		problems = append(problems, "pipeline.concurrency must be between 1 and 16")
	}
	if c.Pipeline.RequestsPerSecond < 0 {
		problems = append(problems, "pipeline.requests_per_second must be >= 0")
	}
	if c.Ingest.MaxRows < 0 {
		problems = append(problems, "ingest.max_rows must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
