package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Judge     JudgeConfig     `yaml:"judge" mapstructure:"judge"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the durable backend for the evaluation log.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "file", "sqlite", or "postgres"
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// JudgeConfig configures the scoring call.
type JudgeConfig struct {
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	RubricPath        string  `yaml:"rubric_path" mapstructure:"rubric_path"`
}

// QueueConfig configures the evaluation scheduler.
type QueueConfig struct {
	Capacity        int     `yaml:"capacity" mapstructure:"capacity"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs     int     `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	GrowthFactor    float64 `yaml:"growth_factor" mapstructure:"growth_factor"`
	PressureDivisor int     `yaml:"pressure_divisor" mapstructure:"pressure_divisor"`
	MaxExponent     int     `yaml:"max_exponent" mapstructure:"max_exponent"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("RAGSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.sqlite_path", "./data/ragscore.db")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("judge.max_tokens", 512)
	v.SetDefault("judge.temperature", 0.0)
	v.SetDefault("judge.timeout_secs", 30)
	v.SetDefault("judge.requests_per_second", 2)
	v.SetDefault("queue.capacity", 100)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.base_delay_ms", 200)
	v.SetDefault("queue.growth_factor", 2.0)
	v.SetDefault("queue.pressure_divisor", 10)
	v.SetDefault("queue.max_exponent", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	return &cfg, nil
}

// Validate checks the fields required for the given run mode. "serve" runs
// the full pipeline; "inspect" only reads the store (stats, export).
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Queue.Capacity < 1 {
			problems = append(problems, "queue.capacity must be >= 1")
		}
		if c.Queue.MaxRetries < 0 {
			problems = append(problems, "queue.max_retries must be >= 0")
		}
	case "inspect":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "file", "":
		if c.Store.DataDir == "" {
			problems = append(problems, "store.data_dir is required")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store driver %q", c.Store.Driver))
	}

	if len(problems) > 0 {
		return eris.New("invalid config: " + strings.Join(problems, "; "))
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
