package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PublicBaseURL is the address embedded in reviewer notification links.
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	Storage struct {
		DataDir string `envconfig:"DATA_DIR" default:"./data"`
	} `envconfig:""`

	LLM struct {
		APIKey      string  `envconfig:"LLM_API_KEY"`
		BaseURL     string  `envconfig:"LLM_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
		Model       string  `envconfig:"LLM_MODEL" default:"gemini-pro"`
		Temperature float64 `envconfig:"LLM_TEMPERATURE" default:"0.5"`
	} `envconfig:""`

	SMTP struct {
		Host     string `envconfig:"SMTP_HOST"`
		Port     int    `envconfig:"SMTP_PORT"`
		User     string `envconfig:"SMTP_USER"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"SMTP_FROM"`
	} `envconfig:""`

	ReviewerEmail string `envconfig:"REVIEWER_EMAIL"`

	// ScheduleCron enables periodic draft generation when non-empty
	// (standard 5-field cron expression).
	ScheduleCron string `envconfig:"SCHEDULE_CRON"`
}

// Load reads configuration from environment variables and validates that the
// external collaborators (LLM backend, SMTP sink) are fully configured. It
// returns a descriptive error if a required credential is missing or
// malformed; the process must not start in that case.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.User
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if c.SMTP.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if c.SMTP.Port == 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if c.SMTP.User == "" {
		missing = append(missing, "SMTP_USER")
	}
	if c.SMTP.Password == "" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if c.ReviewerEmail == "" {
		missing = append(missing, "REVIEWER_EMAIL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s. Set them in the environment before starting", strings.Join(missing, ", "))
	}
	if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid SMTP_PORT %d: must be between 1 and 65535", c.SMTP.Port)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port)
	}
	return nil
}
