package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

type postFunc func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// statusCommand answers "status" (the default) and "channel" with a view of
// the replica, posted ephemerally to the request's response URL. Requests
// without a response URL, such as outgoing webhooks, are only logged.
func statusCommand(conn *usecase.Connection, post postFunc) interfaces.WebhookHandler {
	return func(ctx context.Context, req *model.WebhookRequest) error {
		logger := logging.From(ctx)
		logger.Info("webhook received",
			"command", req.Command,
			"trigger_word", req.TriggerWord,
			"user_id", req.UserID,
			"channel_id", req.ChannelID,
		)

		if req.ResponseURL == "" {
			return nil
		}

		text := replyFor(conn, req)
		msg := &slack.WebhookMessage{
			ResponseType: "ephemeral",
			Text:         text,
		}
		if err := post(ctx, req.ResponseURL, msg); err != nil {
			return goerr.Wrap(err, "failed to post command response",
				goerr.V("command", req.Command),
				goerr.V(usecase.ChannelIDKey, req.ChannelID),
			)
		}
		return nil
	}
}

func replyFor(conn *usecase.Connection, req *model.WebhookRequest) string {
	var text string
	switch sub := strings.ToLower(strings.TrimSpace(req.Text)); sub {
	case "", "status":
		text = fmt.Sprintf("Replica is %s.", conn.State())
		conn.View(func(store *memory.Store) {
			if store == nil {
				return
			}
			sum := store.Summary()
			text += fmt.Sprintf(" Team %s: %d users, %d channels, %d messages, %d files.",
				sum.Team, sum.Users, sum.Channels, sum.Messages, sum.Files)
		})

	case "channel":
		text = fmt.Sprintf("Channel %s is not in the replica.", req.ChannelID)
		conn.View(func(store *memory.Store) {
			if store == nil {
				return
			}
			if ch := store.Channel(req.ChannelID); ch != nil {
				text = fmt.Sprintf("Channel %s: %d members, %d messages, %d pinned items.",
					req.ChannelID, len(ch.Members), len(ch.Messages), len(ch.Pinned))
			}
		})

	default:
		text = fmt.Sprintf("Unknown subcommand %q. Try `status` or `channel`.", sub)
	}
	return text
}
