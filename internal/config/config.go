package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Retriever RetrieverConfig `yaml:"retriever" envconfig:"RETRIEVER"`
	Adjust    AdjustConfig    `yaml:"adjust" envconfig:"ADJUST"`
	Compare   CompareConfig   `yaml:"compare" envconfig:"COMPARE"`
}

// ServerConfig contains HTTP server configuration for the report API
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// RetrieverConfig contains NSE download configuration
type RetrieverConfig struct {
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	RatePerSecond float64       `yaml:"rate_per_second" envconfig:"RATE_PER_SECOND" default:"2"`
	Burst         int           `yaml:"burst" envconfig:"BURST" default:"1"`
	Concurrency   int           `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4"`
	RetryAttempts int           `yaml:"retry_attempts" envconfig:"RETRY_ATTEMPTS" default:"3"`
	Headless      bool          `yaml:"headless" envconfig:"HEADLESS" default:"true"`
	UserAgent     string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64)"`
}

// AdjustConfig configures the corporate-action adjustment engine. It is
// passed into the engine explicitly; the engine holds no package state.
type AdjustConfig struct {
	Workers        int `yaml:"workers" envconfig:"WORKERS" default:"4" validate:"min=1"`
	RoundPrecision int `yaml:"round_precision" envconfig:"ROUND_PRECISION" default:"2" validate:"min=0,max=6"`
}

// CompareConfig configures reference validation. Tickers maps an NSE symbol
// to its Yahoo Finance ticker (e.g. "360ONE" -> "360ONE.NS").
type CompareConfig struct {
	Tolerance      float64           `yaml:"tolerance" envconfig:"TOLERANCE" default:"0.01" validate:"min=0"`
	RoundPrecision int               `yaml:"round_precision" envconfig:"ROUND_PRECISION" default:"2" validate:"min=0,max=6"`
	Tickers        map[string]string `yaml:"tickers" envconfig:"TICKERS"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("NSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.FilePath == "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if envConfig.Retriever.Timeout == 0 {
		envConfig.Retriever.Timeout = fileConfig.Retriever.Timeout
	}
	if envConfig.Retriever.RatePerSecond == 0 {
		envConfig.Retriever.RatePerSecond = fileConfig.Retriever.RatePerSecond
	}
	if envConfig.Adjust.Workers == 0 {
		envConfig.Adjust.Workers = fileConfig.Adjust.Workers
	}
	if envConfig.Adjust.RoundPrecision == 0 {
		envConfig.Adjust.RoundPrecision = fileConfig.Adjust.RoundPrecision
	}
	if envConfig.Compare.Tolerance == 0 {
		envConfig.Compare.Tolerance = fileConfig.Compare.Tolerance
	}
	if envConfig.Compare.RoundPrecision == 0 {
		envConfig.Compare.RoundPrecision = fileConfig.Compare.RoundPrecision
	}
	if len(envConfig.Compare.Tickers) == 0 {
		envConfig.Compare.Tickers = fileConfig.Compare.Tickers
	}
	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	// Always JSON format, always dual output
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(DefaultLogsDir, "app.log")
	}

	if c.Adjust.Workers <= 0 {
		c.Adjust.Workers = DefaultWorkers
	}
	if c.Compare.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative")
	}

	validate := validator.New()
	if err := validate.Struct(c.Adjust); err != nil {
		return fmt.Errorf("adjust config: %w", err)
	}
	if err := validate.Struct(c.Compare); err != nil {
		return fmt.Errorf("compare config: %w", err)
	}

	return nil
}

// getConfigFilePath returns the path to the configuration file
func getConfigFilePath() string {
	if path := os.Getenv("NSE_CONFIG_FILE"); path != "" {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "config.yaml")
}
