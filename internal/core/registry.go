package core

import (
	"slices"
	"strings"
	"sync"
)

// RoomInfo summarizes an active room.
type RoomInfo struct {
	Name    string
	Members int
}

// Registry maps room keys to the clients joined to them.
// The registry lock only guards the room map; membership changes take the
// per-room lock, so different rooms never contend.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Join adds a client to a room, creating the room on first use.
// Returns true if newly added.
func (r *Registry) Join(room string, c *Client) bool {
	for {
		added, alive := r.lookup(room, true).add(c)
		if alive {
			return added
		}
	}
}

// Leave removes a client from a room. An emptied room is dropped from the registry.
// Returns true if removed.
func (r *Registry) Leave(room string, c *Client) bool {
	rm := r.lookup(room, false)
	if rm == nil {
		return false
	}
	removed, empty := rm.remove(c)
	if empty {
		r.collect(room, rm)
	}
	return removed
}

// Members returns a snapshot of the clients in a room.
func (r *Registry) Members(room string) []*Client {
	rm := r.lookup(room, false)
	if rm == nil {
		return nil
	}
	return rm.snapshot()
}

// Len returns the number of clients in a room.
func (r *Registry) Len(room string) int {
	rm := r.lookup(room, false)
	if rm == nil {
		return 0
	}
	return rm.Len()
}

// Rooms lists rooms with at least one member, sorted by name.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		if n := rm.Len(); n > 0 {
			infos = append(infos, RoomInfo{Name: rm.Name, Members: n})
		}
	}
	slices.SortFunc(infos, func(a, b RoomInfo) int { return strings.Compare(a.Name, b.Name) })
	return infos
}

// Clients returns every joined client across all rooms.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	var clients []*Client
	for _, rm := range rooms {
		clients = append(clients, rm.snapshot()...)
	}
	return clients
}

func (r *Registry) lookup(name string, create bool) *Room {
	r.mu.RLock()
	rm := r.rooms[name]
	r.mu.RUnlock()
	if rm != nil || !create {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm = r.rooms[name]; rm == nil {
		rm = NewRoom(name)
		r.rooms[name] = rm
	}
	return rm
}

// collect drops rm if it is still registered under name and still empty.
// Lock order is registry then room.
func (r *Registry) collect(name string, rm *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[name] != rm {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if len(rm.clients) == 0 {
		rm.dead = true
		delete(r.rooms, name)
	}
}
