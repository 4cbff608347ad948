package store

import (
	"context"
	"errors"
	"time"
)

// DefaultHistoryLimit is the number of recent messages replayed to a joining client.
const DefaultHistoryLimit = 50

// MaxHistoryLimit bounds any single history read.
const MaxHistoryLimit = 200

// ErrInvalidLimit is returned when a history read asks for a non-positive limit.
var ErrInvalidLimit = errors.New("invalid history limit")

// Message represents a persisted chat message.
type Message struct {
	ID        int64
	Room      string
	Username  string
	Content   string
	CreatedAt time.Time
}

// MessageStore handles message persistence.
// Implementations must be safe for concurrent use and serialize appends.
type MessageStore interface {
	// AppendMessage persists a message and returns it with the store-assigned ID and timestamp.
	AppendMessage(ctx context.Context, room, username, content string) (*Message, error)

	// RecentMessages returns up to limit most recent messages of a room, oldest first.
	RecentMessages(ctx context.Context, room string, limit int) ([]*Message, error)

	// Close releases the underlying resources.
	Close() error
}

// ClampLimit validates a history limit and caps it at MaxHistoryLimit.
func ClampLimit(limit int) (int, error) {
	if limit <= 0 {
		return 0, ErrInvalidLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit, nil
	}
	return limit, nil
}

// Reverse flips messages in place. Backends read newest first and reverse into chronological order.
func Reverse(messages []*Message) {
	for i := range len(messages) / 2 {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}
}
