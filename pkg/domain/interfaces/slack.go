package interfaces

import (
	"context"

	"github.com/0xpablo/slackkit/pkg/domain/model"
)

// SlackClient obtains a connection URL and the snapshot to seed a session with
type SlackClient interface {
	Bootstrap(ctx context.Context) (*model.Bootstrap, error)
}
