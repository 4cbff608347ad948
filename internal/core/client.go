package core

import "sync"

const (
	// DefaultRoom is joined when a connection names no room.
	DefaultRoom = "general"
	// DefaultSendBuffer is the outbound queue length of a client.
	DefaultSendBuffer = 32
)

// Client is one live connection as seen by the core layer.
// The room is fixed when the client is created.
type Client struct {
	ID     string
	Room   string
	Events chan *Event

	done      chan struct{}
	closeOnce sync.Once

	// While holding, deliveries queue in pending so nothing overtakes the
	// history event.
	mu      sync.Mutex
	holding bool
	pending []*Event
}

// NewClient constructs a client with an outbound queue of the given size.
func NewClient(id, room string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:     id,
		Room:   room,
		Events: make(chan *Event, buffer),
		done:   make(chan struct{}),
	}
}

// Deliver enqueues an event without blocking. It reports false when the
// client is closed or its queue is full.
func (c *Client) Deliver(ev *Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.holding {
		if len(c.pending) >= cap(c.Events) {
			return false
		}
		c.pending = append(c.pending, ev)
		return true
	}
	return c.enqueue(ev)
}

// hold queues deliveries aside until release is called.
func (c *Client) hold() {
	c.mu.Lock()
	c.holding = true
	c.mu.Unlock()
}

// release enqueues first, then everything held since hold, dropping chat
// messages whose IDs first already carries.
func (c *Client) release(first *Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int64]struct{}, len(first.Messages))
	for _, msg := range first.Messages {
		seen[msg.ID] = struct{}{}
	}

	c.enqueue(first)
	for _, ev := range c.pending {
		if ev.Kind == EventChatMessage {
			if _, dup := seen[ev.Message.ID]; dup {
				continue
			}
		}
		c.enqueue(ev)
	}
	c.pending = nil
	c.holding = false
}

func (c *Client) enqueue(ev *Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// Close marks the client as gone. Events is never closed; writers stop on Done.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
