package cli

import (
	"context"

	"github.com/0xpablo/slackkit/pkg/usecase"
)

type Supervisor = supervisor

var (
	NewSupervisor = newSupervisor
	StatusCommand = statusCommand
	ErrGaveUp     = errGaveUp
)

func (s *supervisor) Attach(conn *usecase.Connection) { s.attach(conn) }
func (s *supervisor) Run(ctx context.Context) error   { return s.run(ctx) }
