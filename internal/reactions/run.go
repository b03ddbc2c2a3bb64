package reactions

import (
	"context"
	"fmt"

	"github.com/user/prereview/internal/commands/slackshare"
	"github.com/user/prereview/internal/types"
)

// Reaction kinds, as named in runs and logs.
const (
	KindProcessReceived      = "process-received-review-request"
	KindNotifyCommunitySlack = "notify-community-slack"
)

// Run executes the reaction of the given kind. For KindNotifyCommunitySlack
// the posted message is recorded with slackshare; an already recorded share
// skips the post entirely.
func (r *Reactor) Run(ctx context.Context, kind string, id types.ReviewRequestID) error {
	switch kind {
	case KindProcessReceived:
		return r.ProcessReceivedReviewRequest(ctx, id)
	case KindNotifyCommunitySlack:
		return r.notifyAndRecord(ctx, id)
	default:
		return fmt.Errorf("unknown reaction %q", kind)
	}
}

func (r *Reactor) notifyAndRecord(ctx context.Context, id types.ReviewRequestID) error {
	history, err := r.log.Read(ctx, slackshare.Filter(id))
	if err != nil {
		return types.NewFailedToNotifyCommunitySlack(id, &types.UnableToQueryError{Cause: err}, true)
	}
	if _, shared := slackshare.Fold(history, id).(slackshare.HasBeenShared); shared {
		return nil
	}

	message, err := r.NotifyCommunitySlack(ctx, id)
	if err != nil {
		return err
	}

	err = slackshare.Execute(ctx, r.log, slackshare.Command{
		ReviewRequestID:  id,
		ChannelID:        message.ChannelID,
		MessageTimestamp: message.MessageTimestamp,
	})
	if err != nil {
		cause, retryable := classify(ctx, KindNotifyCommunitySlack, id, err)
		return types.NewFailedToNotifyCommunitySlack(id, cause, retryable)
	}
	return nil
}
