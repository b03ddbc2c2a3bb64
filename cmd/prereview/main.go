package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/prereview/internal/config"
	"github.com/user/prereview/internal/db"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/state"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "prereview",
	Short:         "Review request event log and reactions for PREreview",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".prereview", "config.json"), "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads .env and the config file, exiting on failure.
func loadConfig() *config.Config {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	slog.SetDefault(newLogger(cfg, os.Stderr))
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// eventStore is what every backend offers.
type eventStore interface {
	events.Log
	events.Tailer
}

// openLog opens the configured event log backend. The returned close
// function is never nil.
func openLog(cfg *config.Config) (eventStore, func() error, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		log, err := db.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite event log: %w", err)
		}
		return log, log.Close, nil
	default:
		return state.NewEventLog(cfg.DataDir), func() error { return nil }, nil
	}
}

// withLog runs fn against the configured event log and closes it after.
func withLog(fn func(cfg *config.Config, log eventStore) error) error {
	cfg := loadConfig()
	setupLogging(cfg)

	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	return fn(cfg, log)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
