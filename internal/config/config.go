// Package config handles application settings: connection parameters
// from environment variables and the table list from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// ConfigError marks a pre-flight configuration problem. It aborts the
// run before any network call is made.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Msg
}

// Config holds the connection settings for the remote Baserow instance,
// loaded from environment variables (populated by .env in main).
type Config struct {
	Token     string
	BaseURL   string
	PageSize  int
	OutputDir string
	MaxPages  int
}

// LoadConfig reads settings from the environment. The token is the only
// required value; everything else has a default matching the hosted API.
func LoadConfig() (*Config, error) {
	token := os.Getenv("BASEROW_TOKEN")
	if token == "" {
		return nil, &ConfigError{Msg: "BASEROW_TOKEN environment variable not set"}
	}

	cfg := &Config{
		Token:     token,
		BaseURL:   "https://api.baserow.io",
		PageSize:  100,
		OutputDir: "data/snapshots",
		MaxPages:  1000,
	}

	if v := os.Getenv("BASEROW_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BASEROW_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("BASEROW_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, &ConfigError{Msg: fmt.Sprintf("BASEROW_PAGE_SIZE must be a positive integer, got %q", v)}
		}
		cfg.PageSize = n
	}
	if v := os.Getenv("BASEROW_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, &ConfigError{Msg: fmt.Sprintf("BASEROW_MAX_PAGES must be a positive integer, got %q", v)}
		}
		cfg.MaxPages = n
	}

	return cfg, nil
}
