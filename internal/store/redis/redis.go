// Package redis stores chat history in Redis lists so several broker
// processes on one host can share it.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vovakirdan/minicom/internal/store"
)

// appendScript assigns the next per-room ID and server timestamp and pushes
// the record in one atomic step, so list order always matches ID order.
var appendScript = goredis.NewScript(`
local id = redis.call('INCR', KEYS[1])
local now = redis.call('TIME')
local record = cjson.encode({
	id = id,
	room = ARGV[1],
	username = ARGV[2],
	content = ARGV[3],
	sec = tonumber(now[1]),
	usec = tonumber(now[2])
})
redis.call('RPUSH', KEYS[2], record)
return record
`)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implements store.MessageStore on top of Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

var _ store.MessageStore = (*Store)(nil)

type record struct {
	ID       int64  `json:"id"`
	Room     string `json:"room"`
	Username string `json:"username"`
	Content  string `json:"content"`
	Sec      int64  `json:"sec"`
	Usec     int64  `json:"usec"`
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, opts.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "minicom"
	}
	return &Store{client: client, prefix: prefix}
}

// Keys share the {room} hash tag so the script's keys land in one cluster slot.
func (s *Store) seqKey(room string) string {
	return fmt.Sprintf("%s:{%s}:seq", s.prefix, room)
}

func (s *Store) listKey(room string) string {
	return fmt.Sprintf("%s:{%s}:messages", s.prefix, room)
}

// AppendMessage persists a message via the append script.
func (s *Store) AppendMessage(ctx context.Context, room, username, content string) (*store.Message, error) {
	raw, err := appendScript.Run(ctx, s.client, []string{s.seqKey(room), s.listKey(room)}, room, username, content).Text()
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return decode(raw)
}

// RecentMessages reads the list tail, which is already oldest first.
func (s *Store) RecentMessages(ctx context.Context, room string, limit int) ([]*store.Message, error) {
	limit, err := store.ClampLimit(limit)
	if err != nil {
		return nil, err
	}

	raws, err := s.client.LRange(ctx, s.listKey(room), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	messages := make([]*store.Message, 0, len(raws))
	for _, raw := range raws {
		msg, err := decode(raw)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(raw string) (*store.Message, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &store.Message{
		ID:        rec.ID,
		Room:      rec.Room,
		Username:  rec.Username,
		Content:   rec.Content,
		CreatedAt: time.Unix(rec.Sec, rec.Usec*int64(time.Microsecond)).UTC(),
	}, nil
}
