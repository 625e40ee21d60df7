package usecase

import "github.com/0xpablo/slackkit/pkg/domain/types"

// Metrics receives counters from the connection. Implementations must be
// safe for concurrent use and must not block.
type Metrics interface {
	FrameReceived(eventType string)
	DecodeFailed(reason string)
	EventApplied(eventType string)
	EventSkipped(eventType string)
	StateChanged(state types.ConnState)
	PendingChanged(n int)
}

type nopMetrics struct{}

func (nopMetrics) FrameReceived(string)         {}
func (nopMetrics) DecodeFailed(string)          {}
func (nopMetrics) EventApplied(string)          {}
func (nopMetrics) EventSkipped(string)          {}
func (nopMetrics) StateChanged(types.ConnState) {}
func (nopMetrics) PendingChanged(int)           {}
