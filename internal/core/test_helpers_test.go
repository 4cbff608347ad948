package core

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/minicom/internal/store"
	"github.com/vovakirdan/minicom/internal/store/memory"
)

var testNow = time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)

func newTestHub(t *testing.T, st store.MessageStore) *Hub {
	t.Helper()

	if st == nil {
		st = memory.New()
	}
	return NewHub(st, nil, Options{Now: func() time.Time { return testNow }})
}

// openSession creates, opens and registers cleanup for a session, and
// consumes its history event.
func openSession(t *testing.T, hub *Hub, id, room string) *Session {
	t.Helper()

	s := hub.NewSession(NewClient(id, room, 16))
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open session %s: %v", id, err)
	}
	t.Cleanup(s.Close)
	mustEvent(t, s.Client().Events, EventHistory)
	return s
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// nextEvent returns the very next queued event, failing if none arrives.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected an event, got none")
		return nil
	}
}

// expectNoEvent fails if anything is queued on ch within a short window.
func expectNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v: %+v", ev.Kind, ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// failingStore wraps a working store and fails the selected operations.
type failingStore struct {
	store.MessageStore
	appendErr  error
	historyErr error
}

func (f *failingStore) AppendMessage(ctx context.Context, room, username, content string) (*store.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	return f.MessageStore.AppendMessage(ctx, room, username, content)
}

func (f *failingStore) RecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.MessageStore.RecentMessages(ctx, room, limit)
}

// blockingStore parks armed operations until release is closed, after
// signalling entered.
type blockingStore struct {
	store.MessageStore
	blockAppend  atomic.Bool
	blockHistory atomic.Bool
	entered      chan struct{}
	release      chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		MessageStore: memory.New(),
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
}

func (b *blockingStore) park(ctx context.Context) error {
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingStore) AppendMessage(ctx context.Context, room, username, content string) (*store.Message, error) {
	if b.blockAppend.Load() {
		if err := b.park(ctx); err != nil {
			return nil, err
		}
	}
	return b.MessageStore.AppendMessage(ctx, room, username, content)
}

func (b *blockingStore) RecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	if b.blockHistory.Load() {
		if err := b.park(ctx); err != nil {
			return nil, err
		}
	}
	return b.MessageStore.RecentMessages(ctx, room, limit)
}

func waitEntered(t *testing.T, b *blockingStore) {
	t.Helper()

	select {
	case <-b.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("store call never started")
	}
}
