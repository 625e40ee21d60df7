package interfaces

import "context"

// Transport maintains the persistent connection. Connect returns once the
// dial has been started; the outcome is reported through the handler.
type Transport interface {
	Connect(ctx context.Context, url string, handler TransportHandler) error
	Disconnect(ctx context.Context) error
	Send(ctx context.Context, frame []byte) error
}

// TransportHandler receives connection signals. A transport must call the
// handler methods from one goroutine at a time, in order.
type TransportHandler interface {
	OnOpen()
	OnText(frame string)
	OnClose()
	OnError(err error)
}
