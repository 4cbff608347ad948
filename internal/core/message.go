package core

import (
	"time"

	"github.com/vovakirdan/minicom/internal/store"
)

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	Room      string
	Username  string
	Content   string
	CreatedAt time.Time
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		Room:      m.Room,
		Username:  m.Username,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func messagesFromStore(in []*store.Message) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		out = append(out, messageFromStore(m))
	}
	return out
}
