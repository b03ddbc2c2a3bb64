// Package slack posts review requests to the community Slack.
package slack

import (
	"context"
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/user/prereview/internal/reactions"
	"github.com/user/prereview/internal/types"
)

// Client shares review requests in one channel.
type Client struct {
	api       *slackapi.Client
	channelID string
	siteURL   string
}

var _ reactions.CommunitySlack = (*Client)(nil)

// New creates a Client. apiURL overrides the Slack API endpoint and may be
// empty.
func New(token, channelID, siteURL, apiURL string) *Client {
	var opts []slackapi.Option
	if apiURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(strings.TrimRight(apiURL, "/")+"/"))
	}
	return &Client{
		api:       slackapi.New(token, opts...),
		channelID: channelID,
		siteURL:   strings.TrimRight(siteURL, "/"),
	}
}

func (c *Client) SharePreprintReviewRequest(ctx context.Context, request reactions.ShareRequest) (types.CommunitySlackMessage, error) {
	channel, ts, err := c.api.PostMessageContext(ctx, c.channelID,
		slackapi.MsgOptionText(c.message(request), false),
		slackapi.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return types.CommunitySlackMessage{}, fmt.Errorf("%w: %w", types.ErrFailedToSharePreprintReviewRequest, err)
	}
	return types.CommunitySlackMessage{ChannelID: channel, MessageTimestamp: ts}, nil
}

func (c *Client) message(request reactions.ShareRequest) string {
	var b strings.Builder

	requester := "Someone"
	if request.Author != nil && request.Author.Name != "" {
		requester = request.Author.Name
	}

	title, link := "a preprint", ""
	if request.Preprint != nil {
		if request.Preprint.Title != "" {
			title = request.Preprint.Title
		}
		link = request.Preprint.URL
	}

	fmt.Fprintf(&b, "%s is looking for reviews of a preprint.\n\n", requester)
	if link != "" {
		fmt.Fprintf(&b, "*<%s|%s>*\n", link, escape(title))
	} else {
		fmt.Fprintf(&b, "*%s*\n", escape(title))
	}
	if request.Preprint != nil && len(request.Preprint.Authors) > 0 {
		fmt.Fprintf(&b, "by %s\n", escape(authorList(request.Preprint.Authors)))
	}
	if c.siteURL != "" && request.Preprint != nil {
		fmt.Fprintf(&b, "\nWrite a PREreview: %s/preprints/%s:%s/write-a-prereview",
			c.siteURL, request.Preprint.ID.Server, request.Preprint.ID.Value)
	}
	return b.String()
}

func authorList(authors []string) string {
	if len(authors) > 3 {
		return strings.Join(authors[:3], ", ") + " et al."
	}
	return strings.Join(authors, ", ")
}

// escape applies Slack's mrkdwn control character escaping.
func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
