package usecase

import "errors"

// Sentinel errors for the replica use cases
var (
	// ErrReferenceMissing marks an event that names an entity or field absent
	// from the replica. The event is skipped; this is expected under
	// eventual consistency.
	ErrReferenceMissing = errors.New("referenced entity is missing")

	// ErrInvariantViolation marks a mutation that was clamped to keep the
	// replica consistent (e.g. a star count that would go negative)
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrTransport wraps failures reported by, or returned from, the transport
	ErrTransport = errors.New("transport error")

	// ErrInvalidState is returned when a lifecycle call is not allowed in the
	// current connection state
	ErrInvalidState = errors.New("invalid connection state")

	// ErrNotConnected is returned by outbound calls without a live session
	ErrNotConnected = errors.New("not connected")
)

// Keys for error values
const (
	ChannelIDKey = "channel_id"
	UserIDKey    = "user_id"
	FileIDKey    = "file_id"
	TSKey        = "ts"
	StateKey     = "state"
)
