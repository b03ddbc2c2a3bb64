package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/prereview/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Walk through the settings needed to run the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "PREreview setup. Press Enter to keep the value in brackets.")
		fmt.Fprintln(out)
		askSettings(cmd.InOrStdin(), out, cfg)

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(out, "\nSaved %s\n", cfgPath)
		return nil
	},
}

// setting is one wizard question bound to the field it edits.
type setting struct {
	label  string
	secret bool
	field  *string
}

func settingsOf(cfg *config.Config) []setting {
	return []setting{
		{label: "Event store (jsonl or sqlite)", field: &cfg.Store.Driver},
		{label: "Slack bot token, blank disables sharing", secret: true, field: &cfg.Slack.Token},
		{label: "Slack channel ID", field: &cfg.Slack.ChannelID},
		{label: "LLM base URL", field: &cfg.LLM.BaseURL},
		{label: "LLM API key, blank disables categorization", secret: true, field: &cfg.LLM.APIKey},
		{label: "LLM model", field: &cfg.LLM.Model},
	}
}

// askSettings prompts for each setting on out and reads answers from in.
// An empty answer, or running out of input, keeps the current value.
func askSettings(in io.Reader, out io.Writer, cfg *config.Config) {
	lines := bufio.NewScanner(in)
	for _, s := range settingsOf(cfg) {
		shown := *s.field
		if s.secret {
			shown = config.Mask(shown)
		}
		if shown != "" {
			fmt.Fprintf(out, "%s [%s]: ", s.label, shown)
		} else {
			fmt.Fprintf(out, "%s: ", s.label)
		}

		if !lines.Scan() {
			fmt.Fprintln(out)
			return
		}
		if answer := strings.TrimSpace(lines.Text()); answer != "" {
			*s.field = answer
		}
	}
}
