package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/minicom/internal/store"
)

// Options tunes a Hub. Zero values fall back to defaults.
type Options struct {
	HistoryLimit int
	StoreTimeout time.Duration
	Now          func() time.Time
}

// Hub owns the room registry, the dispatcher and the message store, and
// creates one Session per connection.
type Hub struct {
	registry     *Registry
	dispatcher   *Dispatcher
	store        store.MessageStore
	log          zerolog.Logger
	historyLimit int
	storeTimeout time.Duration
	now          func() time.Time
	closed       atomic.Bool

	// active counts sessions not yet closed; drained is closed once the hub
	// has stopped and active reaches zero.
	mu          sync.Mutex
	active      int
	drained     chan struct{}
	drainedOnce sync.Once
}

// NewHub creates a new chat hub instance.
func NewHub(st store.MessageStore, logger *zerolog.Logger, opts Options) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = store.DefaultHistoryLimit
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log := logger.With().Str("component", "hub").Logger()
	registry := NewRegistry()
	return &Hub{
		registry:     registry,
		dispatcher:   NewDispatcher(registry, log),
		store:        st,
		log:          log,
		historyLimit: opts.HistoryLimit,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
		drained:      make(chan struct{}),
	}
}

// Registry exposes room membership.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// NewSession creates the session driving one client. Callers must Close
// every session they create, opened or not, or Wait never returns.
func (h *Hub) NewSession(c *Client) *Session {
	h.mu.Lock()
	h.active++
	h.mu.Unlock()

	return &Session{
		hub:    h,
		client: c,
		log: h.log.With().
			Str("client_id", c.ID).
			Str("room", c.Room).
			Logger(),
	}
}

// Run blocks until ctx is done, then closes every connected client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closed.Store(true)

	clients := h.registry.Clients()
	for _, c := range clients {
		c.Close()
	}
	h.log.Info().Int("clients", len(clients)).Msg("hub stopped")

	h.mu.Lock()
	if h.active == 0 {
		h.markDrained()
	}
	h.mu.Unlock()
}

// Wait blocks until the hub has stopped and every session is closed, or ctx is done.
func (h *Hub) Wait(ctx context.Context) error {
	select {
	case <-h.drained:
		return nil
	case <-ctx.Done():
		h.mu.Lock()
		active := h.active
		h.mu.Unlock()
		return fmt.Errorf("%d sessions still open: %w", active, ctx.Err())
	}
}

func (h *Hub) untrack() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.active--
	if h.active == 0 && h.closed.Load() {
		h.markDrained()
	}
}

func (h *Hub) markDrained() {
	h.drainedOnce.Do(func() { close(h.drained) })
}

// Rooms lists active rooms.
func (h *Hub) Rooms() []RoomInfo {
	return h.registry.Rooms()
}

// History reads the most recent messages of a room, oldest first.
func (h *Hub) History(ctx context.Context, room string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = h.historyLimit
	}
	ctx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	messages, err := h.store.RecentMessages(ctx, room, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	return messagesFromStore(messages), nil
}

func (h *Hub) timestamp() time.Time {
	return h.now().UTC()
}
