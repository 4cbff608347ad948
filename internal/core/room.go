package core

import "sync"

// Room groups the clients currently joined to one room key.
type Room struct {
	Name string

	mu      sync.Mutex
	clients map[*Client]struct{}
	dead    bool
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// add inserts a client. alive is false when the room was already collected
// and the caller must retry on a fresh room.
func (r *Room) add(c *Client) (added, alive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dead {
		return false, false
	}
	if _, exists := r.clients[c]; exists {
		return false, true
	}
	r.clients[c] = struct{}{}
	return true, true
}

// remove deletes a client and reports whether the room is now empty.
func (r *Room) remove(c *Client) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c]; exists {
		delete(r.clients, c)
		removed = true
	}
	return removed, len(r.clients) == 0
}

func (r *Room) snapshot() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		members = append(members, c)
	}
	return members
}

// Len returns the number of joined clients.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
