package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/prereview/internal/config"
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)

	eventsListCmd.Flags().Int("limit", 50, "number of most recent events to show")
	eventsListCmd.Flags().Bool("json", false, "print full envelopes as JSON")
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the event log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		if limit < 1 {
			return fmt.Errorf("--limit must be at least 1, got %d", limit)
		}

		return withLog(func(_ *config.Config, log eventStore) error {
			list, err := log.Tail(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list events: %w", err)
			}
			if asJSON {
				return printJSON(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No events recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tAT\tTYPE\tREVIEW REQUEST")
			for _, e := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Seq, e.At.Format(time.RFC3339), e.Type, e.ReviewRequestID)
			}
			return w.Flush()
		})
	},
}
