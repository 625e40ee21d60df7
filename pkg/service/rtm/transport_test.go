package rtm_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	svc "github.com/0xpablo/slackkit/pkg/service/rtm"
	"github.com/gorilla/websocket"
	"github.com/m-mizutani/gt"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	frames []string
	done   chan struct{}
	once   sync.Once
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) OnOpen() { r.add("open") }

func (r *recorder) OnText(frame string) {
	r.mu.Lock()
	r.frames = append(r.frames, frame)
	r.mu.Unlock()
	r.add("text")
}

func (r *recorder) OnClose() {
	r.add("close")
	r.once.Do(func() { close(r.done) })
}

func (r *recorder) OnError(err error) {
	r.add("error")
	r.once.Do(func() { close(r.done) })
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("transport did not finish")
	}
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), append([]string(nil), r.frames...)
}

func TestReplay(t *testing.T) {
	src := strings.NewReader(`{"type":"hello"}

# comment
{"type":"user_typing","channel":"C1","user":"U1"}
`)
	tr := svc.NewReplay(src)
	rec := newRecorder()

	ctx := context.Background()
	gt.NoError(t, tr.Connect(ctx, "", rec)).Required()
	rec.wait(t)
	<-tr.Done()

	events, frames := rec.snapshot()
	gt.Array(t, events).Equal([]string{"open", "text", "text", "close"})
	gt.Array(t, frames).Length(2)

	// a replay cannot be played twice
	gt.Error(t, tr.Connect(ctx, "", rec)).Is(svc.ErrAlreadyConnected)
	gt.Error(t, tr.Send(ctx, []byte(`{}`))).Is(svc.ErrClosed)
}

func TestReplaySend(t *testing.T) {
	pr, pw := io.Pipe()
	tr := svc.NewReplay(pr)
	rec := newRecorder()
	ctx := context.Background()

	gt.NoError(t, tr.Connect(ctx, "", rec)).Required()
	_, _ = pw.Write([]byte(`{"type":"hello"}` + "\n"))

	gt.NoError(t, tr.Send(ctx, []byte(`{"id":1,"type":"ping"}`)))
	gt.Array(t, tr.Sent()).Length(1)

	_ = pw.Close()
	rec.wait(t)
}

var upgrader = websocket.Upgrader{}

func newEchoServer(t *testing.T, greet string, received chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(greet)); err != nil {
			return
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(data)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocket(t *testing.T) {
	received := make(chan string, 4)
	srv := newEchoServer(t, `{"type":"hello"}`, received)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tr := svc.NewWebSocket(svc.WithWriteTimeout(time.Second))
	rec := newRecorder()
	ctx := context.Background()

	// nothing to send before the dial completes
	gt.Error(t, tr.Send(ctx, []byte(`{}`))).Is(svc.ErrClosed)

	gt.NoError(t, tr.Connect(ctx, url, rec)).Required()
	gt.Error(t, tr.Connect(ctx, url, rec)).Is(svc.ErrAlreadyConnected)

	waitFor(t, func() bool {
		_, frames := rec.snapshot()
		return len(frames) == 1
	})

	gt.NoError(t, tr.Send(ctx, []byte(`{"id":1,"type":"ping"}`))).Required()
	select {
	case got := <-received:
		gt.Value(t, got).Equal(`{"id":1,"type":"ping"}`)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not receive frame")
	}

	gt.NoError(t, tr.Disconnect(ctx))
	rec.wait(t)

	events, frames := rec.snapshot()
	gt.Array(t, events).Equal([]string{"open", "text", "close"})
	gt.Value(t, frames[0]).Equal(`{"type":"hello"}`)

	// reconnect after a clean close
	rec2 := newRecorder()
	gt.NoError(t, tr.Connect(ctx, url, rec2)).Required()
	waitFor(t, func() bool {
		_, frames := rec2.snapshot()
		return len(frames) == 1
	})
	gt.NoError(t, tr.Disconnect(ctx))
	rec2.wait(t)
}

func TestWebSocketDialError(t *testing.T) {
	tr := svc.NewWebSocket()
	rec := newRecorder()

	gt.NoError(t, tr.Connect(context.Background(), "ws://127.0.0.1:1/none", rec)).Required()
	rec.wait(t)

	events, _ := rec.snapshot()
	gt.Array(t, events).Equal([]string{"error"})
}

func TestWebSocketServerClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// abrupt close without a close frame
		_ = conn.UnderlyingConn().Close()
	}))
	t.Cleanup(srv.Close)

	tr := svc.NewWebSocket()
	rec := newRecorder()
	gt.NoError(t, tr.Connect(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), rec)).Required()
	rec.wait(t)

	events, _ := rec.snapshot()
	gt.Array(t, events).Equal([]string{"open", "error"})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
