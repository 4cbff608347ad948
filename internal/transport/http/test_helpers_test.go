package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minicom/internal/config"
	"github.com/vovakirdan/minicom/internal/core"
	"github.com/vovakirdan/minicom/internal/proto"
	"github.com/vovakirdan/minicom/internal/store"
	"github.com/vovakirdan/minicom/internal/store/memory"
)

type testServer struct {
	*httptest.Server
	hub  *core.Hub
	stop context.CancelFunc
}

// startTestServer runs a hub and router over st (a fresh memory store when nil).
func startTestServer(t *testing.T, st store.MessageStore, mutate func(*config.Config)) *testServer {
	t.Helper()

	if st == nil {
		st = memory.New()
	}
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	hub := core.NewHub(st, &logger, core.Options{HistoryLimit: cfg.HistoryLimit})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(NewRouter(hub, &cfg, &logger))
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testServer{Server: ts, hub: hub, stop: cancel}
}

func (s *testServer) wsURL(path string) string {
	return strings.Replace(s.URL, "http", "ws", 1) + path
}

// frame is a superset of every outbound frame shape.
type frame struct {
	Type      string              `json:"type"`
	Username  string              `json:"username"`
	Status    string              `json:"status"`
	IsTyping  bool                `json:"is_typing"`
	Timestamp string              `json:"timestamp"`
	Message   proto.MessageData   `json:"message"`
	Messages  []proto.MessageData `json:"messages"`
	Error     proto.Error         `json:"error"`
}

// dial connects to path and consumes the initial history frame, which
// guarantees the connection has joined its room.
func dial(t *testing.T, ctx context.Context, s *testServer, path string) (*websocket.Conn, frame) {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, s.wsURL(path), nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	history := readFrame(t, ctx, conn)
	if history.Type != proto.OutboundTypeHistory {
		t.Fatalf("expected %s first, got %+v", proto.OutboundTypeHistory, history)
	}
	return conn, history
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, v any) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var f frame
	if err := wsjson.Read(readCtx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

// expectNoFrame fails if a frame arrives within a short window. The read
// deadline closes the connection, so only call it as the last read.
func expectNoFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	var f frame
	err := wsjson.Read(readCtx, conn, &f)
	if err == nil {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if !errors.Is(err, context.DeadlineExceeded) && websocket.CloseStatus(err) == -1 && !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("unexpected read error: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func chat(username, text string) proto.Inbound {
	return proto.Inbound{Type: proto.InboundTypeChatMessage, Username: username, Message: text}
}

// failingStore fails message appends but serves history from memory.
type failingStore struct {
	*memory.Store
}

func (failingStore) AppendMessage(context.Context, string, string, string) (*store.Message, error) {
	return nil, errors.New("disk full")
}

// unreadableStore fails history reads but accepts appends.
type unreadableStore struct {
	*memory.Store
}

func (unreadableStore) RecentMessages(context.Context, string, int) ([]*store.Message, error) {
	return nil, errors.New("connection refused")
}
