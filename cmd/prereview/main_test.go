package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/prereview/internal/config"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/types"
)

func TestOpenLogDrivers(t *testing.T) {
	for _, driver := range []string{config.DriverJSONL, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := config.Default()
			cfg.DataDir = t.TempDir()
			cfg.Store.Driver = driver
			cfg.Store.SQLitePath = filepath.Join(cfg.DataDir, "events.db")

			log, closeLog, err := openLog(cfg)
			if err != nil {
				t.Fatalf("openLog: %v", err)
			}
			defer closeLog()

			ctx := context.Background()
			id := types.NewReviewRequestID()
			if err := log.Append(ctx, events.Received{ReviewRequestID: id, ReceivedAt: time.Now().UTC()}); err != nil {
				t.Fatalf("append: %v", err)
			}
			tail, err := log.Tail(ctx, 10)
			if err != nil {
				t.Fatalf("tail: %v", err)
			}
			if len(tail) != 1 || tail[0].ReviewRequestID != id {
				t.Errorf("unexpected tail %+v", tail)
			}
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	cfg := config.Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := newLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "review_request_id", "abc")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"review_request_id":"abc"`) {
		t.Errorf("expected JSON record, got %s", out)
	}
}

func TestRetryPolicyFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Retry.MaxAttempts = 5
	cfg.Retry.InitialDelay = "250ms"

	policy, err := retryPolicy(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if policy.MaxAttempts != 5 || policy.InitialDelay != 250*time.Millisecond || policy.MaxDelay != 30*time.Second {
		t.Errorf("unexpected policy %+v", policy)
	}
}

func TestEventsListRejectsNonPositiveLimit(t *testing.T) {
	if err := eventsListCmd.Flags().Set("limit", "-1"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eventsListCmd.Flags().Set("limit", "50") })

	err := eventsListCmd.RunE(eventsListCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "--limit") {
		t.Errorf("expected a --limit error, got %v", err)
	}
}
