// Package memory keeps chat history in process memory. History is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vovakirdan/minicom/internal/store"
)

// Store is an in-memory store.MessageStore.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	rooms  map[string][]*store.Message
	now    func() time.Time
}

var _ store.MessageStore = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		rooms: make(map[string][]*store.Message),
		now:   time.Now,
	}
}

// AppendMessage stores a message under the next sequential ID.
func (s *Store) AppendMessage(ctx context.Context, room, username, content string) (*store.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg := &store.Message{
		ID:        s.nextID,
		Room:      room,
		Username:  username,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	s.rooms[room] = append(s.rooms[room], msg)

	out := *msg
	return &out, nil
}

// RecentMessages returns copies of the newest limit messages, oldest first.
func (s *Store) RecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, err := store.ClampLimit(limit)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.rooms[room]
	if len(log) > limit {
		log = log[len(log)-limit:]
	}

	messages := make([]*store.Message, 0, len(log))
	for _, msg := range log {
		cp := *msg
		messages = append(messages, &cp)
	}
	return messages, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
