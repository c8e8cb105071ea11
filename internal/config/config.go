// Package config loads the application configuration from environment
// variables layered over an optional YAML file. Pipeline parameters
// (indicators, country universe, year range, source strategy) are explicit
// configuration, never package-level state, so tests can substitute small
// synthetic universes.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"esgcli/internal/synthetic"
	"esgcli/internal/worldbank"
)

// envPrefix namespaces all environment overrides, e.g. ESG_SERVER_PORT.
const envPrefix = "ESG"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PipelineConfig parameterizes one analysis run.
type PipelineConfig struct {
	Source           string        `yaml:"source" envconfig:"SOURCE" validate:"oneof=worldbank synthetic"`
	BaseURL          string        `yaml:"base_url" envconfig:"BASE_URL"`
	IndicatorA       string        `yaml:"indicator_a" envconfig:"INDICATOR_A" validate:"required"`
	IndicatorB       string        `yaml:"indicator_b" envconfig:"INDICATOR_B" validate:"required"`
	FieldA           string        `yaml:"field_a" envconfig:"FIELD_A" validate:"required"`
	FieldB           string        `yaml:"field_b" envconfig:"FIELD_B" validate:"required,nefield=FieldA"`
	Countries        []string      `yaml:"countries" envconfig:"COUNTRIES" validate:"min=1,dive,len=3"`
	StartYear        int           `yaml:"start_year" envconfig:"START_YEAR" validate:"gte=1960"`
	EndYear          int           `yaml:"end_year" envconfig:"END_YEAR" validate:"gtefield=StartYear"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
	FetchConcurrency int           `yaml:"fetch_concurrency" envconfig:"FETCH_CONCURRENCY" validate:"gt=0"`
	RateLimitRPS     float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst   int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"gt=0"`
	SyntheticSeed    int64         `yaml:"synthetic_seed" envconfig:"SYNTHETIC_SEED"`
	RunTimeout       time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
}

// WebSocketConfig contains progress stream settings.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// ExportConfig controls where report files land.
type ExportConfig struct {
	Dir  string `yaml:"dir" envconfig:"DIR"`
	TopN int    `yaml:"top_n" envconfig:"TOP_N" validate:"gt=0"`
}

// Load builds the configuration: environment variables first, then a YAML
// file (if present) filling whatever the environment left unset, then
// defaults for the remaining gaps, then validation.
func Load() (*Config, error) {
	return LoadFrom(configFilePath())
}

// LoadFrom is Load with an explicit config file path; an empty path skips
// the file layer.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := loadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("load config from %s: %w", path, err)
			}
			cfg = merge(*fileCfg, cfg)
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with no environment or file input.
func Default() *Config {
	cfg, err := LoadFrom("")
	if err != nil {
		// Defaults are constants; they can only fail if edited badly.
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

func configFilePath() string {
	if path := os.Getenv(envPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge fills zero-valued env fields from the file config: environment
// wins, the file backs it up.
func merge(file, env Config) Config {
	if env.Server.Port == 0 {
		env.Server.Port = file.Server.Port
	}
	if env.Server.ReadTimeout == 0 {
		env.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if env.Server.WriteTimeout == 0 {
		env.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if env.Server.ShutdownTimeout == 0 {
		env.Server.ShutdownTimeout = file.Server.ShutdownTimeout
	}
	if env.Logging.Level == "" {
		env.Logging.Level = file.Logging.Level
	}
	if env.Logging.Output == "" {
		env.Logging.Output = file.Logging.Output
	}
	if env.Logging.FilePath == "" {
		env.Logging.FilePath = file.Logging.FilePath
	}
	if env.Pipeline.Source == "" {
		env.Pipeline.Source = file.Pipeline.Source
	}
	if env.Pipeline.BaseURL == "" {
		env.Pipeline.BaseURL = file.Pipeline.BaseURL
	}
	if env.Pipeline.IndicatorA == "" {
		env.Pipeline.IndicatorA = file.Pipeline.IndicatorA
	}
	if env.Pipeline.IndicatorB == "" {
		env.Pipeline.IndicatorB = file.Pipeline.IndicatorB
	}
	if env.Pipeline.FieldA == "" {
		env.Pipeline.FieldA = file.Pipeline.FieldA
	}
	if env.Pipeline.FieldB == "" {
		env.Pipeline.FieldB = file.Pipeline.FieldB
	}
	if len(env.Pipeline.Countries) == 0 {
		env.Pipeline.Countries = file.Pipeline.Countries
	}
	if env.Pipeline.StartYear == 0 {
		env.Pipeline.StartYear = file.Pipeline.StartYear
	}
	if env.Pipeline.EndYear == 0 {
		env.Pipeline.EndYear = file.Pipeline.EndYear
	}
	if env.Pipeline.FetchTimeout == 0 {
		env.Pipeline.FetchTimeout = file.Pipeline.FetchTimeout
	}
	if env.Pipeline.FetchConcurrency == 0 {
		env.Pipeline.FetchConcurrency = file.Pipeline.FetchConcurrency
	}
	if env.Pipeline.RateLimitRPS == 0 {
		env.Pipeline.RateLimitRPS = file.Pipeline.RateLimitRPS
	}
	if env.Pipeline.RateLimitBurst == 0 {
		env.Pipeline.RateLimitBurst = file.Pipeline.RateLimitBurst
	}
	if env.Pipeline.SyntheticSeed == 0 {
		env.Pipeline.SyntheticSeed = file.Pipeline.SyntheticSeed
	}
	if env.Pipeline.RunTimeout == 0 {
		env.Pipeline.RunTimeout = file.Pipeline.RunTimeout
	}
	if env.WebSocket.ReadBufferSize == 0 {
		env.WebSocket.ReadBufferSize = file.WebSocket.ReadBufferSize
	}
	if env.WebSocket.WriteBufferSize == 0 {
		env.WebSocket.WriteBufferSize = file.WebSocket.WriteBufferSize
	}
	if env.WebSocket.PingPeriod == 0 {
		env.WebSocket.PingPeriod = file.WebSocket.PingPeriod
	}
	if env.WebSocket.PongWait == 0 {
		env.WebSocket.PongWait = file.WebSocket.PongWait
	}
	if env.Export.Dir == "" {
		env.Export.Dir = file.Export.Dir
	}
	if env.Export.TopN == 0 {
		env.Export.TopN = file.Export.TopN
	}
	return env
}

// applyDefaults fills whatever neither the environment nor the file set.
// Defaults live here rather than in envconfig struct tags: envconfig applies
// tag defaults before the file layer is merged, which would shadow every
// file value behind them.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/esgcli.log"
	}
	if c.Pipeline.Source == "" {
		c.Pipeline.Source = "worldbank"
	}
	if c.Pipeline.BaseURL == "" {
		c.Pipeline.BaseURL = worldbank.DefaultBaseURL
	}
	if c.Pipeline.IndicatorA == "" {
		c.Pipeline.IndicatorA = worldbank.IndicatorCO2PerCapita
	}
	if c.Pipeline.IndicatorB == "" {
		c.Pipeline.IndicatorB = worldbank.IndicatorGDPPerCapita
	}
	if c.Pipeline.FieldA == "" {
		c.Pipeline.FieldA = "co2_per_capita"
	}
	if c.Pipeline.FieldB == "" {
		c.Pipeline.FieldB = "gdp_per_capita"
	}
	if len(c.Pipeline.Countries) == 0 {
		c.Pipeline.Countries = append([]string(nil), worldbank.DefaultCountries...)
	}
	if c.Pipeline.StartYear == 0 {
		c.Pipeline.StartYear = 2018
	}
	if c.Pipeline.EndYear == 0 {
		c.Pipeline.EndYear = 2022
	}
	if c.Pipeline.FetchTimeout == 0 {
		c.Pipeline.FetchTimeout = 10 * time.Second
	}
	if c.Pipeline.FetchConcurrency == 0 {
		c.Pipeline.FetchConcurrency = 5
	}
	if c.Pipeline.RateLimitRPS == 0 {
		c.Pipeline.RateLimitRPS = 10
	}
	if c.Pipeline.RateLimitBurst == 0 {
		c.Pipeline.RateLimitBurst = 5
	}
	if c.Pipeline.SyntheticSeed == 0 {
		c.Pipeline.SyntheticSeed = synthetic.DefaultSeed
	}
	if c.Pipeline.RunTimeout == 0 {
		c.Pipeline.RunTimeout = 10 * time.Minute
	}
	if c.WebSocket.ReadBufferSize == 0 {
		c.WebSocket.ReadBufferSize = 1024
	}
	if c.WebSocket.WriteBufferSize == 0 {
		c.WebSocket.WriteBufferSize = 1024
	}
	if c.WebSocket.PingPeriod == 0 {
		c.WebSocket.PingPeriod = 30 * time.Second
	}
	if c.WebSocket.PongWait == 0 {
		c.WebSocket.PongWait = 60 * time.Second
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "output"
	}
	if c.Export.TopN == 0 {
		c.Export.TopN = 10
	}
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
