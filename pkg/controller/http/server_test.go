package http_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	httpctrl "github.com/0xpablo/slackkit/pkg/controller/http"
	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/service/metrics"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/m-mizutani/gt"
)

const signingSecret = "test-signing-secret"

// openTransport completes the handshake as soon as it is dialed
type openTransport struct{}

func (openTransport) Connect(_ context.Context, _ string, h interfaces.TransportHandler) error {
	h.OnOpen()
	return nil
}
func (openTransport) Disconnect(context.Context) error   { return nil }
func (openTransport) Send(context.Context, []byte) error { return nil }

func connected(t *testing.T) *usecase.Connection {
	t.Helper()
	conn := usecase.NewConnection(openTransport{})
	snapshot := &model.Snapshot{
		Self:  "U1",
		Team:  &model.Team{ID: "T1", Name: "acme"},
		Users: []*model.User{{ID: "U1", Name: "alice"}},
		Channels: []*model.Channel{{
			ID:      "C1",
			Name:    "general",
			Members: []string{"U1"},
		}},
	}
	gt.NoError(t, conn.Connect(context.Background(), "wss://example.test", snapshot)).Required()
	return conn
}

func sign(req *http.Request, body string, at time.Time) {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	gt.NoError(t, err).Required()
	return rec, string(body)
}

func TestVerifySlackSignature(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	body := []byte(`{"type":"url_verification","challenge":"test"}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	valid := "v0=" + hex.EncodeToString(mac.Sum(nil))

	testCases := []struct {
		name      string
		timestamp string
		signature string
		body      []byte
		now       time.Time
		wantErr   bool
	}{
		{name: "valid", timestamp: ts, signature: valid, body: body, now: now},
		{name: "missing timestamp", signature: valid, body: body, now: now, wantErr: true},
		{name: "missing signature", timestamp: ts, body: body, now: now, wantErr: true},
		{name: "bad timestamp", timestamp: "yesterday", signature: valid, body: body, now: now, wantErr: true},
		{name: "too old", timestamp: ts, signature: valid, body: body, now: now.Add(10 * time.Minute), wantErr: true},
		{name: "from the future", timestamp: ts, signature: valid, body: body, now: now.Add(-10 * time.Minute), wantErr: true},
		{name: "tampered body", timestamp: ts, signature: valid, body: []byte(`{}`), now: now, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := httpctrl.VerifySlackSignature(signingSecret, tc.timestamp, tc.signature, tc.body, tc.now)
			if tc.wantErr {
				gt.Value(t, err).NotNil()
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestHealthAndState(t *testing.T) {
	t.Run("before connect", func(t *testing.T) {
		srv := httpctrl.New(usecase.NewConnection(openTransport{}))

		rec, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, body).Contains(`"state":"disconnected"`)

		rec, body = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Bool(t, strings.Contains(body, `"session"`)).False()
	})

	t.Run("connected", func(t *testing.T) {
		srv := httpctrl.New(connected(t))

		rec, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/state", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			State   string              `json:"state"`
			Session usecase.SessionInfo `json:"session"`
			Replica memory.Summary      `json:"replica"`
		}
		gt.NoError(t, json.Unmarshal([]byte(body), &resp)).Required()
		gt.Value(t, resp.State).Equal("connected")
		gt.Number(t, resp.Session.Generation).Equal(uint64(1))
		gt.Number(t, resp.Replica.Channels).Equal(1)
		gt.Value(t, resp.Replica.Self).Equal("U1")
	})
}

func TestEntities(t *testing.T) {
	srv := httpctrl.New(connected(t))

	rec, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/channels/C1", nil))
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	var ch model.Channel
	gt.NoError(t, json.Unmarshal([]byte(body), &ch)).Required()
	gt.Value(t, ch.Name).Equal("general")

	rec, _ = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/channels/C9", nil))
	gt.Number(t, rec.Code).Equal(http.StatusNotFound)

	rec, body = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/users/U1", nil))
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, body).Contains(`"name":"alice"`)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metrics.New()
	srv := httpctrl.New(usecase.NewConnection(openTransport{}, usecase.WithMetrics(reg)), httpctrl.WithMetrics(reg.Handler()))

	rec, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, body).Contains("slackkit_connection_state")
}

func TestSlackEvent(t *testing.T) {
	conn := connected(t)
	srv := httpctrl.New(conn, httpctrl.WithSlackWebhook(signingSecret, nil))

	post := func(body string, signed bool) (*httptest.ResponseRecorder, string) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", strings.NewReader(body))
		if signed {
			sign(req, body, time.Now())
		}
		return do(t, srv, req)
	}

	t.Run("rejects unsigned requests", func(t *testing.T) {
		rec, _ := post(`{"type":"url_verification","challenge":"abc"}`, false)
		gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("answers url verification", func(t *testing.T) {
		rec, body := post(`{"type":"url_verification","challenge":"abc"}`, true)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, body).Equal("abc")
	})

	t.Run("applies callback events", func(t *testing.T) {
		rec, _ := post(`{"type":"event_callback","team_id":"T1","event_id":"Ev1",
			"event":{"type":"message","channel":"C1","user":"U1","text":"hi","ts":"10.0"}}`, true)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var text string
		conn.View(func(s *memory.Store) {
			if msg := s.Channel("C1").Message("10.0"); msg != nil {
				text = msg.Text
			}
		})
		gt.Value(t, text).Equal("hi")
	})

	t.Run("command route is absent without a handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", strings.NewReader(""))
		sign(req, "", time.Now())
		rec, _ := do(t, srv, req)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestSlackCommand(t *testing.T) {
	var (
		mu   sync.Mutex
		got  *model.WebhookRequest
		done = make(chan struct{})
	)
	handler := func(_ context.Context, req *model.WebhookRequest) error {
		mu.Lock()
		defer mu.Unlock()
		got = req
		close(done)
		return nil
	}
	srv := httpctrl.New(connected(t), httpctrl.WithSlackWebhook(signingSecret, handler))

	form := url.Values{
		"token":        {"legacy"},
		"team_id":      {"T1"},
		"team_domain":  {"acme"},
		"channel_id":   {"C1"},
		"channel_name": {"general"},
		"user_id":      {"U1"},
		"user_name":    {"alice"},
		"command":      {"/replica"},
		"text":         {"status"},
		"response_url": {"https://hooks.example.test/r/1"},
	}
	body := form.Encode()
	req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sign(req, body, time.Now())

	rec, _ := do(t, srv, req)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("command handler was not called")
	}

	mu.Lock()
	defer mu.Unlock()
	gt.Value(t, got.Command).Equal("/replica")
	gt.Value(t, got.Text).Equal("status")
	gt.Value(t, got.ChannelName).Equal("general")
	gt.Bool(t, got.IsCommand()).True()
}

func TestOutgoingWebhook(t *testing.T) {
	calls := make(chan *model.WebhookRequest, 1)
	handler := func(_ context.Context, req *model.WebhookRequest) error {
		calls <- req
		return nil
	}
	srv := httpctrl.New(connected(t), httpctrl.WithSlackWebhook(signingSecret, handler))

	send := func(form url.Values) int {
		body := form.Encode()
		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/command", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		sign(req, body, time.Now())
		rec, _ := do(t, srv, req)
		return rec.Code
	}

	gt.Number(t, send(url.Values{"text": {"hello"}})).Equal(http.StatusBadRequest)

	code := send(url.Values{
		"channel_id":   {"C1"},
		"user_id":      {"U1"},
		"text":         {"deploy now"},
		"trigger_word": {"deploy"},
		"timestamp":    {"1714521600.000100"},
	})
	gt.Number(t, code).Equal(http.StatusOK)

	select {
	case req := <-calls:
		gt.Value(t, req.TriggerWord).Equal("deploy")
		gt.Value(t, req.Timestamp).Equal("1714521600.000100")
		gt.Bool(t, req.IsCommand()).False()
	case <-time.After(5 * time.Second):
		t.Fatal("webhook handler was not called")
	}
}
