package rtm

import "time"

// Envelope carries the frame metadata shared by every event
type Envelope struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`

	// Seq is assigned by the decoder in arrival order and never decreases
	// within a session
	Seq        uint64    `json:"seq"`
	Generation uint64    `json:"generation"`
	EventTS    string    `json:"event_ts,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Frame is a decoded frame
type Frame struct {
	Envelope
	Event Event
}
