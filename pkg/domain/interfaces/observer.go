package interfaces

import (
	"context"

	"github.com/0xpablo/slackkit/pkg/domain/model"
)

// Observer is notified of connection and replica changes. Notifications are
// fire-and-forget and delivered outside the replica lock.
type Observer interface {
	Connected(ctx context.Context)
	Disconnected(ctx context.Context, err error)
	Changed(ctx context.Context, change model.Change)
}

// WebhookHandler receives slash command and outgoing webhook invocations
type WebhookHandler func(ctx context.Context, req *model.WebhookRequest) error
