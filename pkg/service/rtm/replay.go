package rtm

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

const maxReplayLine = 4 * 1024 * 1024

// Replay is a Transport that plays back recorded frames, one JSON object per
// line, and then closes. Outbound frames are recorded and never answered.
type Replay struct {
	src io.Reader

	mu        sync.Mutex
	connected bool
	sent      [][]byte
	done      chan struct{}
}

var _ interfaces.Transport = (*Replay)(nil)

func NewReplay(src io.Reader) *Replay {
	return &Replay{src: src, done: make(chan struct{})}
}

// Connect starts playback. The url is ignored. A Replay can only be played
// once.
func (r *Replay) Connect(ctx context.Context, _ string, handler interfaces.TransportHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.src == nil {
		return goerr.Wrap(ErrAlreadyConnected, "replay source already consumed")
	}
	src := r.src
	r.src = nil
	r.connected = true

	go r.play(ctx, src, handler)
	return nil
}

func (r *Replay) play(ctx context.Context, src io.Reader, handler interfaces.TransportHandler) {
	defer close(r.done)
	defer func() {
		r.mu.Lock()
		r.connected = false
		r.mu.Unlock()
	}()

	handler.OnOpen()

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxReplayLine)
	line := 0
	for scanner.Scan() {
		line++
		if ctx.Err() != nil {
			handler.OnClose()
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		handler.OnText(text)
	}
	if err := scanner.Err(); err != nil {
		handler.OnError(goerr.Wrap(err, "failed to read replay frames", goerr.V("line", line)))
		return
	}
	handler.OnClose()
}

// Done is closed once playback has finished
func (r *Replay) Done() <-chan struct{} { return r.done }

func (r *Replay) Disconnect(ctx context.Context) error {
	return nil
}

func (r *Replay) Send(ctx context.Context, frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return goerr.Wrap(ErrClosed, "replay is not playing")
	}
	r.sent = append(r.sent, append([]byte(nil), frame...))
	return nil
}

// Sent returns the frames written while playing
func (r *Replay) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sent...)
}
