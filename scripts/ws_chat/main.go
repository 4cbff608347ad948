package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/minicom/internal/proto"
)

// frame holds any outbound frame the server sends.
type frame struct {
	Type     string              `json:"type"`
	Username string              `json:"username"`
	Status   string              `json:"status"`
	IsTyping bool                `json:"is_typing"`
	Message  proto.MessageData   `json:"message"`
	Messages []proto.MessageData `json:"messages"`
	Error    proto.Error         `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	target := strings.TrimRight(*addr, "/") + "/" + url.PathEscape(*room)
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeUserJoin, Username: *user}); err != nil {
		return fmt.Errorf("send user_join: %w", err)
	}

	fmt.Printf("Connected to %s as %s\n", target, *user)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *user)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch f.Type {
		case proto.OutboundTypeHistory:
			for _, msg := range f.Messages {
				printMessage(msg)
			}
		case proto.OutboundTypeChatMessage:
			printMessage(f.Message)
		case proto.OutboundTypeUserStatus:
			fmt.Printf("* %s is %s\n", f.Username, f.Status)
		case proto.OutboundTypeTyping:
			if f.IsTyping {
				fmt.Printf("* %s is typing...\n", f.Username)
			}
		case proto.OutboundTypeError:
			fmt.Printf("! %s: %s\n", f.Error.Code, f.Error.Msg)
		default:
			fmt.Printf("frame type=%s\n", f.Type)
		}
	}
}

func printMessage(msg proto.MessageData) {
	fmt.Printf("[%s] %s %s: %s\n", msg.Room, msg.Timestamp, msg.Username, msg.Content)
}

func writeLoop(ctx context.Context, conn *websocket.Conn, user string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			inbound := proto.Inbound{Type: proto.InboundTypeChatMessage, Username: user, Message: text}
			if err := wsjson.Write(ctx, conn, inbound); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
