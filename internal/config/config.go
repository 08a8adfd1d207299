package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configFileBase = "timeshift_config"

	defaultListenAddr      = ":8080"
	defaultLogsDir         = "logs"
	defaultRequestTimeout  = 30
	defaultFiscalYearStart = "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"
	defaultFiscalYearLabel = FiscalYearLabelStart
)

// DatabaseConfig selects and configures the store backend
type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"required,oneof=postgres memory"`
	URL      string `yaml:"url,omitempty" validate:"required_if=Driver postgres"`
	Fixture  string `yaml:"fixture,omitempty"`
	MaxConns int32  `yaml:"maxConns,omitempty" validate:"omitempty,min=1"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	ListenAddr            string   `yaml:"listenAddr" validate:"required"`
	CORSOrigins           []string `yaml:"corsOrigins,omitempty" validate:"dive,url"`
	RequestTimeoutSeconds int      `yaml:"requestTimeoutSeconds" validate:"min=1"`
}

// RequestTimeout returns the per-request timeout as a duration
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// CalloutConfig holds the policies the callout engine consumes
type CalloutConfig struct {
	// RestPeriodHours is the minimum gap required between another assignment and the callout shift.
	// Zero disables the check and only overlapping shifts are excluded.
	RestPeriodHours float64 `yaml:"restPeriodHours" validate:"gte=0"`

	// FiscalYearStart is an RRULE whose occurrences are the first days of each fiscal year
	FiscalYearStart string `yaml:"fiscalYearStart" validate:"required"`

	// FiscalYearLabel chooses whether a fiscal year is named after the calendar year it starts or ends in
	FiscalYearLabel string `yaml:"fiscalYearLabel" validate:"required,oneof=start end"`
}

// RestPeriod returns the rest period as a duration
func (c CalloutConfig) RestPeriod() time.Duration {
	return time.Duration(c.RestPeriodHours * float64(time.Hour))
}

// LoggingConfig controls where file logs are written
type LoggingConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Callout  CalloutConfig  `yaml:"callout"`
	Logging  LoggingConfig  `yaml:"logging"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from timeshift_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads timeshift_config.<env>.yaml, falling back to timeshift_config.yaml
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// DATABASE_URL and LISTEN_ADDR from the environment override the file values.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := NewFiscalYearPolicy(cfg.Callout.FiscalYearStart, cfg.Callout.FiscalYearLabel); err != nil {
		return fmt.Errorf("invalid rrule in callout.fiscalYearStart: %w", err)
	}

	return nil
}

// FiscalYearPolicy builds the fiscal-year derivation policy described by the config
func (c *Config) FiscalYearPolicy() (*FiscalYearPolicy, error) {
	return NewFiscalYearPolicy(c.Callout.FiscalYearStart, c.Callout.FiscalYearLabel)
}

func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = defaultListenAddr
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = defaultLogsDir
	}
	if cfg.Callout.FiscalYearStart == "" {
		cfg.Callout.FiscalYearStart = defaultFiscalYearStart
	}
	if cfg.Callout.FiscalYearLabel == "" {
		cfg.Callout.FiscalYearLabel = defaultFiscalYearLabel
	}
}

// findConfigFile searches the current directory and then the home directory.
// With a non-empty env, timeshift_config.<env>.yaml is preferred in each location.
func findConfigFile(env string) (string, error) {
	var names []string
	if env != "" {
		names = append(names, fmt.Sprintf("%s.%s.yaml", configFileBase, env))
	}
	names = append(names, configFileBase+".yaml")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, dir := range []string{".", homeDir} {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
