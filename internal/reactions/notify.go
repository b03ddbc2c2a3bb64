package reactions

import (
	"context"
	"log/slog"

	"github.com/user/prereview/internal/types"
)

// NotifyCommunitySlack announces a published review request on the
// community Slack and returns the posted message. It does not record the
// share; see slackshare.
func (r *Reactor) NotifyCommunitySlack(ctx context.Context, id types.ReviewRequestID) (types.CommunitySlackMessage, error) {
	message, err := r.notifyCommunitySlack(ctx, id)
	if err != nil {
		cause, retryable := classify(ctx, KindNotifyCommunitySlack, id, err)
		return types.CommunitySlackMessage{}, types.NewFailedToNotifyCommunitySlack(id, cause, retryable)
	}
	return message, nil
}

func (r *Reactor) notifyCommunitySlack(ctx context.Context, id types.ReviewRequestID) (types.CommunitySlackMessage, error) {
	published, err := r.queries.GetPublishedReviewRequest(ctx, id)
	if err != nil {
		return types.CommunitySlackMessage{}, err
	}

	preprint, err := r.preprints.GetPreprint(ctx, published.PreprintID)
	if err != nil {
		return types.CommunitySlackMessage{}, err
	}

	message, err := r.slack.SharePreprintReviewRequest(ctx, ShareRequest{
		ReviewRequestID: id,
		Preprint:        preprint,
		Author:          published.Author,
		Published:       published.Published,
	})
	if err != nil {
		return types.CommunitySlackMessage{}, err
	}

	slog.InfoContext(ctx, "shared review request on community slack",
		"review_request_id", string(id),
		"channel_id", message.ChannelID,
		"message_timestamp", message.MessageTimestamp,
	)
	return message, nil
}
