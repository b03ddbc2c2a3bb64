package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/prereview/internal/categorize"
	"github.com/user/prereview/internal/config"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/gateway"
	"github.com/user/prereview/internal/preprints"
	"github.com/user/prereview/internal/reactions"
	"github.com/user/prereview/internal/scheduler"
	"github.com/user/prereview/internal/slack"
	"github.com/user/prereview/internal/types"
	"github.com/user/prereview/internal/webhook"
	"github.com/user/prereview/pkg/llm"
	"github.com/user/prereview/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prereview daemon",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func newPreprints(cfg *config.Config) *preprints.Client {
	return preprints.New(cfg.Preprints.BaseURL, cfg.Preprints.UserAgent)
}

// newCategorizer returns nil when no LLM API key is configured.
func newCategorizer(cfg *config.Config) (*categorize.Categorizer, error) {
	if cfg.LLM.APIKey == "" {
		return nil, nil
	}
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	return categorize.New(provider, cfg.LLM.Model, cfg.LLM.AbstractTokens)
}

func retryPolicy(cfg *config.Config) (*gateway.RetryPolicy, error) {
	initial, maxDelay, err := cfg.RetryDelays()
	if err != nil {
		return nil, err
	}
	return &gateway.RetryPolicy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: initial,
		Multiplier:   cfg.Retry.Multiplier,
		MaxDelay:     maxDelay,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	store, closeStore, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	pid := pidFileIn(cfg.DataDir)
	if err := pid.write(); err != nil {
		return err
	}
	defer pid.remove()

	resolver := newPreprints(cfg)
	community := slack.New(cfg.Slack.Token, cfg.Slack.ChannelID, cfg.Slack.SiteURL, cfg.Slack.APIURL)

	// Gateway: reactions append through it, so their events dispatch too.
	var reactor *reactions.Reactor
	gw := gateway.New(store, func(ctx context.Context, reaction string, id types.ReviewRequestID) error {
		return reactor.Run(ctx, reaction, id)
	}, int64(cfg.MaxConcurrent))
	reactor = reactions.NewReactor(gw, resolver, community)

	policy, err := retryPolicy(cfg)
	if err != nil {
		return err
	}
	gw.SetRetryPolicy(policy)

	gw.Subscribe(events.OfTypes(events.TypeReceived), reactions.KindProcessReceived)
	if cfg.Slack.Token != "" && cfg.Slack.ChannelID != "" {
		gw.Subscribe(events.OfTypes(events.TypeAccepted), reactions.KindNotifyCommunitySlack)
	} else {
		slog.Warn("community slack notifications disabled (no token or channel)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw.Start(ctx)
	defer gw.Stop()

	// Scheduled jobs
	jobs := []scheduler.Job{{
		Name:     "process_received",
		Schedule: cfg.Jobs.ProcessReceived,
		Run: func(ctx context.Context) error {
			return reactor.RedriveReceived(ctx, gw)
		},
	}}
	categorizer, err := newCategorizer(cfg)
	if err != nil {
		return fmt.Errorf("create categorizer: %w", err)
	}
	if categorizer != nil {
		sweep := categorize.NewSweep(gw, resolver, categorizer, cfg.Jobs.Concurrency)
		jobs = append(jobs, scheduler.Job{
			Name:     "categorize",
			Schedule: cfg.Jobs.Categorize,
			Run:      sweep.Run,
		})
	} else {
		slog.Warn("categorization disabled (no LLM API key)")
	}

	sched := scheduler.New(ctx, jobs...)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	slog.Info("prereview started",
		"data_dir", cfg.DataDir,
		"store", cfg.Store.Driver,
		"log_level", cfg.LogLevel,
		"max_concurrent", cfg.MaxConcurrent,
		"llm_model", cfg.LLM.Model,
		"pid_file", string(pid),
	)

	if cfg.HTTP.Enabled {
		httpServer := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           webhook.NewServer(gw),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("http server started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			httpServer.Shutdown(shutdownCtx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			pid.remove()
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if writeErr := pid.write(); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
