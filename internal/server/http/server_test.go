package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	cfgpkg "github.com/CHESTERFIELD/simple-chat/internal/config"
	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

func newTestServer(t *testing.T) (*Server, *runtime.Runtime) {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.Fsync = "never"
	cfg.Mailbox.Delivery = "poll"
	cfg.Mailbox.PollInterval = 10 * time.Millisecond
	rt, err := runtime.Open(context.Background(), runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	return New(rt, nil, logger), rt
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("error body %q: %v", w.Body.String(), err)
	}
	return out["error"]
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t)
	w := serve(s, http.MethodGet, "/v1/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("cors header: %q", got)
	}
}

func TestHealthHandlerAfterClose(t *testing.T) {
	s, rt := newTestServer(t)
	_ = rt.Close()
	w := serve(s, http.MethodGet, "/v1/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	w := serve(s, http.MethodOptions, "/v1/messages", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestUsersHandler(t *testing.T) {
	s, rt := newTestServer(t)
	ctx := context.Background()
	for _, u := range []mailbox.User{{Login: "bob", FullName: "Bob B"}, {Login: "alice"}} {
		if err := rt.Engine().RegisterUser(ctx, u); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	w := serve(s, http.MethodGet, "/v1/users", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var out struct {
		Users []struct {
			Login    string `json:"login"`
			FullName string `json:"full_name"`
		} `json:"users"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Users) != 2 || out.Users[0].Login != "alice" || out.Users[1].FullName != "Bob B" {
		t.Fatalf("users: %+v", out.Users)
	}

	if w := serve(s, http.MethodPost, "/v1/users", "{}"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post users: %d", w.Code)
	}
}

func TestSendHandler(t *testing.T) {
	s, rt := newTestServer(t)
	w := serve(s, http.MethodPost, "/v1/messages", `{"sender":"alice","recipient":"bob","body":"hi"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Created int64 `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Created == 0 {
		t.Fatalf("created not assigned")
	}
	queued, err := rt.Engine().DrainOnce(context.Background(), "bob")
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(queued) != 1 || queued[0].Message.Body != "hi" {
		t.Fatalf("queued: %+v", queued)
	}
}

func TestSendHandlerErrors(t *testing.T) {
	s, _ := newTestServer(t)
	cases := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"empty body field", http.MethodPost, `{"sender":"alice","recipient":"bob"}`, http.StatusBadRequest},
		{"missing recipient", http.MethodPost, `{"sender":"alice","body":"x"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		w := serve(s, tc.method, "/v1/messages", tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s: want %d, got %d", tc.name, tc.status, w.Code)
		}
		if errorBody(t, w) == "" {
			t.Fatalf("%s: empty error message", tc.name)
		}
	}
}

func TestSubscribeSSE(t *testing.T) {
	s, _ := newTestServer(t)
	if w := serve(s, http.MethodPost, "/v1/messages", `{"sender":"alice","recipient":"bob","body":"one"}`); w.Code != http.StatusCreated {
		t.Fatalf("send: %d", w.Code)
	}
	w := serve(s, http.MethodGet, "/v1/messages/subscribe?login=bob&limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") || !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("not an SSE event: %q", body)
	}
	var item struct {
		Sender string `json:"sender"`
		Body   string `json:"body"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(body, "data: "))), &item); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if item.Sender != "alice" || item.Body != "one" {
		t.Fatalf("event: %+v", item)
	}
}

func TestSubscribeSSEValidation(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{
		"/v1/messages/subscribe",
		"/v1/messages/subscribe?login=bob&limit=-1",
		"/v1/messages/subscribe?login=bob&limit=abc",
		"/v1/messages/subscribe?login=bob&filter=sender%20%3D%3D",
	} {
		w := serve(s, http.MethodGet, target, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", target, w.Code)
		}
		if errorBody(t, w) == "" {
			t.Fatalf("%s: empty error", target)
		}
	}
}

func TestSubscribeWebsocket(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	if w := serve(s, http.MethodPost, "/v1/messages", `{"sender":"alice","recipient":"bob","body":"ws"}`); w.Code != http.StatusCreated {
		t.Fatalf("send: %d", w.Code)
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/messages/ws?login=bob&limit=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var item struct {
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
		Body      string `json:"body"`
		Created   int64  `json:"created"`
	}
	if err := conn.ReadJSON(&item); err != nil {
		t.Fatalf("read: %v", err)
	}
	if item.Body != "ws" || item.Recipient != "bob" || item.Created == 0 {
		t.Fatalf("frame: %+v", item)
	}
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close after limit, got %v", err)
	}
}

func TestSubscribeWebsocketRejectsMissingLogin(t *testing.T) {
	s, _ := newTestServer(t)
	w := serve(s, http.MethodGet, "/v1/messages/ws", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	if w := serve(s, http.MethodPost, "/v1/messages", `{"sender":"alice","recipient":"bob","body":"m"}`); w.Code != http.StatusCreated {
		t.Fatalf("send: %d", w.Code)
	}
	w := serve(s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "simplechat_messages_enqueued_total 1") {
		t.Fatalf("enqueued counter missing from scrape")
	}
}
