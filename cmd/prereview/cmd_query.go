package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/prereview/internal/config"
	"github.com/user/prereview/internal/queries"
	"github.com/user/prereview/internal/types"
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryRecentCmd, queryPublishedCmd, queryReceivedCmd,
		queryNeedingCategorizationCmd, queryHasReviewRequestCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run read-side projections over the event log",
}

// withQueries runs fn and prints its result as JSON.
func withQueries(fn func(q *queries.Service) (any, error)) error {
	return withLog(func(_ *config.Config, log eventStore) error {
		result, err := fn(queries.NewService(log))
		if err != nil {
			return err
		}
		return printJSON(result)
	})
}

var queryRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the five most recent published review requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueries(func(q *queries.Service) (any, error) {
			recent, err := q.GetFiveMostRecentReviewRequests(cmd.Context())
			if recent == nil {
				recent = []queries.RecentReviewRequest{}
			}
			return recent, err
		})
	},
}

var queryPublishedCmd = &cobra.Command{
	Use:   "published <id>",
	Short: "Show a published review request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseReviewRequestID(args[0])
		if err != nil {
			return err
		}
		return withQueries(func(q *queries.Service) (any, error) {
			return q.GetPublishedReviewRequest(cmd.Context(), id)
		})
	},
}

var queryReceivedCmd = &cobra.Command{
	Use:   "received <id>",
	Short: "Show a received review request awaiting a decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseReviewRequestID(args[0])
		if err != nil {
			return err
		}
		return withQueries(func(q *queries.Service) (any, error) {
			return q.GetReceivedReviewRequest(cmd.Context(), id)
		})
	},
}

var queryNeedingCategorizationCmd = &cobra.Command{
	Use:   "needing-categorization",
	Short: "List review requests that still need categorizing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQueries(func(q *queries.Service) (any, error) {
			ids, err := q.FindReviewRequestsNeedingCategorization(cmd.Context())
			if ids == nil {
				ids = []types.ReviewRequestID{}
			}
			return ids, err
		})
	},
}

var queryHasReviewRequestCmd = &cobra.Command{
	Use:   "has-review-request <server> <doi>",
	Short: "Report whether a preprint has a published review request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		preprint := types.PreprintID{Server: args[0], Value: args[1]}
		return withLog(func(_ *config.Config, log eventStore) error {
			has, err := queries.NewService(log).DoesAPreprintHaveAReviewRequest(cmd.Context(), preprint)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), has)
			return nil
		})
	},
}
