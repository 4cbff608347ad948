package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHubRunClosesClientsOnShutdown(t *testing.T) {
	hub := newTestHub(t, nil)
	a := openSession(t, hub, "a", "general")
	b := openSession(t, hub, "b", "r1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	for _, s := range []*Session{a, b} {
		select {
		case <-s.Client().Done():
		default:
			t.Fatalf("client %s not closed", s.Client().ID)
		}
	}

	late := hub.NewSession(NewClient("late", "general", 1))
	if err := late.Open(context.Background()); !errors.Is(err, ErrHubClosed) {
		t.Fatalf("expected ErrHubClosed, got %v", err)
	}
}

func TestHubRoomsAndHistory(t *testing.T) {
	hub := newTestHub(t, nil)
	ctx := context.Background()
	a := openSession(t, hub, "a", "general")
	openSession(t, hub, "b", "general")
	openSession(t, hub, "c", "r1")

	rooms := hub.Rooms()
	if len(rooms) != 2 || rooms[0] != (RoomInfo{Name: "general", Members: 2}) || rooms[1] != (RoomInfo{Name: "r1", Members: 1}) {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}

	if err := a.Handle(ctx, Command{Kind: CommandChatMessage, Username: "alice", Content: "hi"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	history, err := hub.History(ctx, "general", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Content != "hi" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestHubWaitBlocksUntilSessionsClose(t *testing.T) {
	hub := newTestHub(t, nil)
	s := openSession(t, hub, "a", "general")
	never := hub.NewSession(NewClient("b", "general", 1))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	if err := hub.Wait(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Wait to time out with open sessions, got %v", err)
	}

	s.Close()
	never.Close()

	long, cancelLong := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelLong()
	if err := hub.Wait(long); err != nil {
		t.Fatalf("Wait after all sessions closed: %v", err)
	}
}

func TestHubWaitWithoutSessions(t *testing.T) {
	hub := newTestHub(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	waitCtx, cancelWait := context.WithTimeout(context.Background(), time.Second)
	defer cancelWait()
	if err := hub.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
