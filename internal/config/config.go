package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// SessionOverride changes the length of sessions on dates matching an rrule
type SessionOverride struct {
	RRule   string  `yaml:"rrule" validate:"required"`
	Session string  `yaml:"session,omitempty"`
	Hours   float64 `yaml:"hours" validate:"gt=0"`
}

// ComplianceConfig tunes the rule evaluator
type ComplianceConfig struct {
	SessionHours         float64           `yaml:"sessionHours,omitempty" validate:"omitempty,gt=0"`
	CriticalOverageHours *float64          `yaml:"criticalOverageHours,omitempty" validate:"omitempty,gte=0"`
	SessionOverrides     []SessionOverride `yaml:"sessionOverrides,omitempty" validate:"dive"`
}

// SwapsConfig controls the swap workflow
type SwapsConfig struct {
	RequireValidation bool `yaml:"requireValidation"`
}

// BatchConfig controls how violation batches are dispatched
type BatchConfig struct {
	ChunkSize      int `yaml:"chunkSize,omitempty" validate:"omitempty,min=1,max=500"`
	MaxConcurrency int `yaml:"maxConcurrency,omitempty" validate:"omitempty,min=1,max=32"`
}

// NotificationsConfig enables email notifications when a recipient is set
type NotificationsConfig struct {
	GmailRecipient string `yaml:"gmailRecipient,omitempty" validate:"omitempty,email"`
	GmailSender    string `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
}

// ReportsConfig names where violation reports are published
type ReportsConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID,omitempty"`
}

// ServerConfig configures the reference schedule service
type ServerConfig struct {
	ListenAddr  string `yaml:"listenAddr,omitempty" validate:"omitempty,hostname_port"`
	DatabaseURL string `yaml:"databaseURL,omitempty" validate:"omitempty,url"`
	JWTSecret   string `yaml:"jwtSecret,omitempty" validate:"omitempty,min=16"`
	SeedFile    string `yaml:"seedFile,omitempty"`
	TokenTTL    string `yaml:"tokenTTL,omitempty"`
}

// Config represents the application configuration
type Config struct {
	APIBaseURL    string              `yaml:"apiBaseURL" validate:"required,url"`
	APIToken      string              `yaml:"apiToken,omitempty"`
	Compliance    ComplianceConfig    `yaml:"compliance,omitempty"`
	Swaps         SwapsConfig         `yaml:"swaps,omitempty"`
	Batch         BatchConfig         `yaml:"batch,omitempty"`
	Notifications NotificationsConfig `yaml:"notifications,omitempty"`
	Reports       ReportsConfig       `yaml:"reports,omitempty"`
	Server        ServerConfig        `yaml:"server,omitempty"`
}

const (
	DefaultListenAddr = "localhost:8080"
	DefaultTokenTTL   = 12 * time.Hour
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates schedule_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment
// For example, env="test" will look for "schedule_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule and duration syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.Compliance.SessionOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in compliance.sessionOverrides[%d]: %w", i, err)
		}
	}

	if cfg.Server.TokenTTL != "" {
		if _, err := time.ParseDuration(cfg.Server.TokenTTL); err != nil {
			return fmt.Errorf("invalid server.tokenTTL: %w", err)
		}
	}

	return nil
}

// ListenAddr returns the configured listen address or the default
func (c *Config) ListenAddr() string {
	if c.Server.ListenAddr != "" {
		return c.Server.ListenAddr
	}
	return DefaultListenAddr
}

// TokenTTL returns the lifetime of issued API tokens
func (c *Config) TokenTTL() time.Duration {
	if ttl, err := time.ParseDuration(c.Server.TokenTTL); err == nil && ttl > 0 {
		return ttl
	}
	return DefaultTokenTTL
}

// findConfigFile returns the path of the config file for env
func findConfigFile(env string) (string, error) {
	configFileName := "schedule_config.yaml"
	if env != "" {
		configFileName = "schedule_config." + env + ".yaml"
	}
	return findFile(configFileName)
}
