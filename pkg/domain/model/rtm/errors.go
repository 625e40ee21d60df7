package rtm

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrDecode is matched by every failure to turn a frame into an event
	ErrDecode = goerr.New("failed to decode frame")

	// ErrUnknownEventType is returned for a well-formed frame with a type this
	// client does not handle
	ErrUnknownEventType = goerr.Wrap(ErrDecode, "unknown event type")

	// ErrMalformedFrame is returned when a frame is not a JSON object or a
	// known type carries an undecodable payload
	ErrMalformedFrame = goerr.Wrap(ErrDecode, "malformed frame")
)
