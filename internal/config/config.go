// Package config loads the engine process's environment-driven
// configuration: logging, the document store DSN, the admin HTTP surface,
// mail delivery, and the BPMN model directory, using an
// environment-variable-with-defaults loader style.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting the engine process needs
// at startup. Collaborators (kernel, scheduler, store) are constructed from
// these values once, in cmd/workflowctl.
type Config struct {
	LogLevel  string
	LogFormat string

	// Store
	StoreDriver string // "memory" or "postgres"
	DatabaseDSN string

	// Admin HTTP surface.
	AdminAddr string

	// Mail plugin.
	SMTPHost string
	SMTPPort int
	SMTPFrom string

	// Model Manager.
	ModelDir string

	// Scheduler. Loaded and validated only: the scheduler package applies
	// its own fixed cap of 100 active schedulers and does not read this.
	SchedulerMaxConcurrent int

	// Rule engine.
	RuleTimeout time.Duration
}

// Load reads configuration from the process environment, optionally
// preceded by a .env file named by WORKFLOW_ENV_FILE (defaulting to
// ".env"); a missing .env file is not an error.
func Load() (*Config, error) {
	envFile := getEnv("WORKFLOW_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("warning: could not load %s: %v\n", envFile, err)
	}

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		DatabaseDSN: getEnv("DATABASE_DSN", ""),
		AdminAddr:   getEnv("ADMIN_ADDR", ":8181"),
		SMTPHost:    getEnv("SMTP_HOST", "localhost"),
		SMTPPort:    getIntEnv("SMTP_PORT", 25),
		SMTPFrom:    getEnv("SMTP_FROM", "workflow@localhost"),
		ModelDir:    getEnv("MODEL_DIR", "./models"),
	}

	cfg.SchedulerMaxConcurrent = getIntEnv("SCHEDULER_MAX_CONCURRENT", 100)

	ruleTimeout := getEnv("RULE_TIMEOUT", "5s")
	d, err := time.ParseDuration(ruleTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid RULE_TIMEOUT: %w", err)
	}
	cfg.RuleTimeout = d

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configuration combinations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %s (must be memory or postgres)", c.StoreDriver)
	}
	if c.StoreDriver == "postgres" && strings.TrimSpace(c.DatabaseDSN) == "" {
		return errors.New("DATABASE_DSN is required when STORE_DRIVER=postgres")
	}
	if c.SchedulerMaxConcurrent <= 0 {
		return fmt.Errorf("invalid SCHEDULER_MAX_CONCURRENT: %d", c.SchedulerMaxConcurrent)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
