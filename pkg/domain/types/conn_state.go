package types

// ConnState is the state of the RTM connection lifecycle
type ConnState int

const (
	ConnStateDisconnected ConnState = iota
	ConnStateConnecting
	ConnStateConnected
	ConnStateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateConnecting:
		return "connecting"
	case ConnStateConnected:
		return "connected"
	case ConnStateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// CanConnect reports whether Connect may be called in this state
func (s ConnState) CanConnect() bool {
	return s == ConnStateDisconnected || s == ConnStateReconnecting
}

// Live reports whether frames from the transport are accepted in this state
func (s ConnState) Live() bool {
	return s == ConnStateConnecting || s == ConnStateConnected
}
