package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/prereview/internal/categorize"
	"github.com/user/prereview/internal/commands/accept"
	categorizecmd "github.com/user/prereview/internal/commands/categorize"
	"github.com/user/prereview/internal/commands/importrequest"
	"github.com/user/prereview/internal/commands/receive"
	"github.com/user/prereview/internal/commands/reject"
	"github.com/user/prereview/internal/config"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/preprints"
	"github.com/user/prereview/internal/types"
)

func init() {
	rootCmd.AddCommand(reviewRequestCmd)
	reviewRequestCmd.AddCommand(rrReceiveCmd, rrImportCmd, rrAcceptCmd, rrRejectCmd, rrCategorizeCmd)

	rrReceiveCmd.Flags().String("id", "", "review request id (generated when empty)")
	rrReceiveCmd.Flags().String("preprint", "", "DOI or URL of the preprint (required)")
	rrReceiveCmd.Flags().String("name", "", "requester name")
	rrReceiveCmd.Flags().String("orcid", "", "requester ORCID iD")
	rrReceiveCmd.Flags().String("from", "cli", "where the request came from")
	_ = rrReceiveCmd.MarkFlagRequired("preprint")

	for _, c := range []*cobra.Command{rrImportCmd, rrAcceptCmd} {
		c.Flags().String("server", "", "preprint server (required)")
		c.Flags().String("doi", "", "preprint DOI (required)")
		c.Flags().String("name", "", "requester name")
		c.Flags().String("orcid", "", "requester ORCID iD")
		_ = c.MarkFlagRequired("server")
		_ = c.MarkFlagRequired("doi")
	}
	rrImportCmd.Flags().String("id", "", "review request id (generated when empty)")
	rrImportCmd.Flags().String("published", "", "publication time, RFC 3339 (defaults to now)")

	rrRejectCmd.Flags().String("reason", string(events.ReasonNotAPreprint),
		"rejection reason (not-a-preprint or unknown-preprint)")

	rrCategorizeCmd.Flags().String("language", "", "language code; with --keyword/--topic skips the LLM")
	rrCategorizeCmd.Flags().StringSlice("keyword", nil, "keyword (repeatable)")
	rrCategorizeCmd.Flags().StringSlice("topic", nil, "topic (repeatable)")
}

var reviewRequestCmd = &cobra.Command{
	Use:     "review-request",
	Aliases: []string{"rr"},
	Short:   "Issue review request commands",
}

func requesterFlags(cmd *cobra.Command) *types.Requester {
	name, _ := cmd.Flags().GetString("name")
	orcid, _ := cmd.Flags().GetString("orcid")
	if name == "" && orcid == "" {
		return nil
	}
	return &types.Requester{Name: name, ORCID: orcid}
}

func idFlag(cmd *cobra.Command) (types.ReviewRequestID, error) {
	raw, _ := cmd.Flags().GetString("id")
	if raw == "" {
		return types.NewReviewRequestID(), nil
	}
	return types.ParseReviewRequestID(raw)
}

func preprintFlags(cmd *cobra.Command) types.PreprintID {
	server, _ := cmd.Flags().GetString("server")
	doi, _ := cmd.Flags().GetString("doi")
	return types.PreprintID{Server: server, Value: doi}
}

// explain turns a command error into a message for the terminal.
func explain(err error) error {
	var unable *types.UnableToHandleCommandError
	if errors.As(err, &unable) {
		return fmt.Errorf("the event log is unavailable: %w", unable.Cause)
	}
	return err
}

var rrReceiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Record a received review request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := idFlag(cmd)
		if err != nil {
			return err
		}
		reference, _ := cmd.Flags().GetString("preprint")
		from, _ := cmd.Flags().GetString("from")

		return withLog(func(_ *config.Config, log eventStore) error {
			err := receive.Execute(cmd.Context(), log, receive.Command{
				ReviewRequestID: id,
				ReceivedAt:      time.Now().UTC(),
				PreprintID:      preprints.ParseIndeterminate(reference),
				Requester:       requesterFlags(cmd),
				ReceivedFrom:    from,
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var rrImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a review request already published by a PREreviewer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := idFlag(cmd)
		if err != nil {
			return err
		}
		published := time.Now().UTC()
		if raw, _ := cmd.Flags().GetString("published"); raw != "" {
			if published, err = time.Parse(time.RFC3339, raw); err != nil {
				return fmt.Errorf("--published: %w", err)
			}
		}

		return withLog(func(_ *config.Config, log eventStore) error {
			err := importrequest.Execute(cmd.Context(), log, importrequest.Command{
				ReviewRequestID: id,
				PublishedAt:     published.UTC(),
				PreprintID:      preprintFlags(cmd),
				Requester:       requesterFlags(cmd),
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var rrAcceptCmd = &cobra.Command{
	Use:   "accept <id>",
	Short: "Accept a received review request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseReviewRequestID(args[0])
		if err != nil {
			return err
		}
		return withLog(func(_ *config.Config, log eventStore) error {
			err := accept.Execute(cmd.Context(), log, accept.Command{
				ReviewRequestID: id,
				AcceptedAt:      time.Now().UTC(),
				PreprintID:      preprintFlags(cmd),
				Requester:       requesterFlags(cmd),
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review request %s accepted.\n", id)
			return nil
		})
	},
}

var rrRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a received review request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseReviewRequestID(args[0])
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		switch events.RejectionReason(reason) {
		case events.ReasonNotAPreprint, events.ReasonUnknownPreprint:
		default:
			return fmt.Errorf("--reason: unknown reason %q", reason)
		}

		return withLog(func(_ *config.Config, log eventStore) error {
			err := reject.Execute(cmd.Context(), log, reject.Command{
				ReviewRequestID: id,
				RejectedAt:      time.Now().UTC(),
				Reason:          events.RejectionReason(reason),
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review request %s rejected.\n", id)
			return nil
		})
	},
}

var rrCategorizeCmd = &cobra.Command{
	Use:   "categorize <id>",
	Short: "Categorize a review request, by hand or with the configured LLM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseReviewRequestID(args[0])
		if err != nil {
			return err
		}
		language, _ := cmd.Flags().GetString("language")
		keywords, _ := cmd.Flags().GetStringSlice("keyword")
		topics, _ := cmd.Flags().GetStringSlice("topic")
		manual := language != "" || len(keywords) > 0 || len(topics) > 0

		return withLog(func(cfg *config.Config, log eventStore) error {
			if manual {
				return explain(categorizecmd.Execute(cmd.Context(), log, categorizecmd.Command{
					ReviewRequestID: id,
					Language:        language,
					Keywords:        keywords,
					Topics:          topics,
				}))
			}

			categorizer, err := newCategorizer(cfg)
			if err != nil {
				return err
			}
			if categorizer == nil {
				return errors.New("no LLM API key configured; pass --language, --keyword and --topic instead")
			}
			sweep := categorize.NewSweep(log, newPreprints(cfg), categorizer, 1)
			if err := sweep.One(cmd.Context(), id); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Review request %s categorized.\n", id)
			return nil
		})
	},
}
