package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/minicom/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to send with")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?room="+*room, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var history proto.HistoryEvent
	if err := wsjson.Read(ctx, conn, &history); err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if history.Type != proto.OutboundTypeHistory {
		return fmt.Errorf("expected %s, got %s", proto.OutboundTypeHistory, history.Type)
	}
	fmt.Printf("History: %d messages\n", len(history.Messages))

	inbound := proto.Inbound{Type: proto.InboundTypeChatMessage, Username: *user, Message: *text}
	if err := wsjson.Write(ctx, conn, inbound); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	var echo proto.ChatMessageEvent
	if err := wsjson.Read(ctx, conn, &echo); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if echo.Type != proto.OutboundTypeChatMessage {
		return fmt.Errorf("expected %s, got %s", proto.OutboundTypeChatMessage, echo.Type)
	}

	fmt.Printf("Received message id=%d room=%s user=%s text=%q at %s\n",
		echo.Message.ID, echo.Message.Room, echo.Message.Username, echo.Message.Content, echo.Message.Timestamp)
	return nil
}
