package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	LogFormat     string `json:"log_format"`
	MaxConcurrent int    `json:"max_concurrent"`
	Store         struct {
		Driver     string `json:"driver"`
		SQLitePath string `json:"sqlite_path"`
	} `json:"store"`
	HTTP struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Slack struct {
		Token     string `json:"token"`
		ChannelID string `json:"channel_id"`
		SiteURL   string `json:"site_url"`
		APIURL    string `json:"api_url"`
	} `json:"slack"`
	Preprints struct {
		BaseURL   string `json:"base_url"`
		UserAgent string `json:"user_agent"`
	} `json:"preprints"`
	LLM struct {
		Provider       string  `json:"provider"`
		BaseURL        string  `json:"base_url"`
		APIKey         string  `json:"api_key"`
		Model          string  `json:"model"`
		MaxTokens      int     `json:"max_tokens"`
		Temperature    float32 `json:"temperature"`
		AbstractTokens int     `json:"abstract_tokens"`
	} `json:"llm"`
	Jobs struct {
		Categorize      string `json:"categorize"`
		ProcessReceived string `json:"process_received"`
		Concurrency     int    `json:"concurrency"`
	} `json:"jobs"`
	Retry struct {
		MaxAttempts  int     `json:"max_attempts"`
		InitialDelay string  `json:"initial_delay"`
		Multiplier   float64 `json:"multiplier"`
		MaxDelay     string  `json:"max_delay"`
	} `json:"retry"`
}

// Store drivers.
const (
	DriverJSONL  = "jsonl"
	DriverSQLite = "sqlite"
)

// Default returns the configuration written on first run.
func Default() *Config {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".prereview"),
		LogLevel:      "info",
		LogFormat:     "text",
		MaxConcurrent: 2,
	}
	cfg.Store.Driver = DriverJSONL
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8420"
	cfg.Slack.SiteURL = "https://prereview.org"
	cfg.Preprints.BaseURL = "https://api.crossref.org"
	cfg.Preprints.UserAgent = "prereview (mailto:help@prereview.org)"
	cfg.LLM.Provider = "openai"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.MaxTokens = 500
	cfg.LLM.Temperature = 0.2
	cfg.LLM.AbstractTokens = 1500
	cfg.Jobs.Categorize = "@every 10m"
	cfg.Jobs.ProcessReceived = "@every 5m"
	cfg.Jobs.Concurrency = 2
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialDelay = "1s"
	cfg.Retry.Multiplier = 2.0
	cfg.Retry.MaxDelay = "30s"
	return cfg
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = filepath.Join(cfg.DataDir, "events.db")
	}

	return cfg, nil
}

// applyEnv overrides file values from the environment (highest precedence).
func applyEnv(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"SLACK_BOT_TOKEN", &cfg.Slack.Token},
		{"SLACK_CHANNEL_ID", &cfg.Slack.ChannelID},
		{"OPENAI_API_KEY", &cfg.LLM.APIKey},
		{"OPENAI_BASE_URL", &cfg.LLM.BaseURL},
		{"PREREVIEW_DATA_DIR", &cfg.DataDir},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// Validate checks values that would otherwise fail deep inside serve.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverJSONL, DriverSQLite:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format: unknown format %q", c.LogFormat)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent: must be at least 1, got %d", c.MaxConcurrent)
	}
	if _, _, err := c.RetryDelays(); err != nil {
		return err
	}
	return nil
}

// RetryDelays parses retry.initial_delay and retry.max_delay.
func (c *Config) RetryDelays() (initial, max time.Duration, err error) {
	initial, err = time.ParseDuration(c.Retry.InitialDelay)
	if err != nil {
		return 0, 0, fmt.Errorf("retry.initial_delay: %w", err)
	}
	max, err = time.ParseDuration(c.Retry.MaxDelay)
	if err != nil {
		return 0, 0, fmt.Errorf("retry.max_delay: %w", err)
	}
	return initial, max, nil
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg to its nested JSON map form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns cfg flattened to dot keys, optionally with secrets masked.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue returns the value stored in the config file under a dot key.
// The file is created with defaults if it does not exist.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	flat, err := readFlat(path)
	if err != nil {
		return nil, err
	}
	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue stores value under a dot key in an existing config file. Values
// that parse as JSON (numbers, booleans) are stored typed; anything else is
// stored as a string.
func SetValue(path, key, value string) error {
	flat, err := readFlat(path)
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	flat[key] = parsed

	data, err := json.MarshalIndent(Unflatten(flat), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, data)
}

func readFlat(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Flatten(m), nil
}
