package core

import "github.com/rs/zerolog"

// Dispatcher fans events out to the members of a room.
type Dispatcher struct {
	registry *Registry
	log      zerolog.Logger
}

// NewDispatcher builds a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: logger}
}

// Dispatch delivers ev to every member of room except exclude (which may be nil).
// Delivery happens outside the registry locks. Recipients that are closed or
// too slow to keep up lose the event; that is logged and never returned.
// Returns the number of recipients that accepted the event.
func (d *Dispatcher) Dispatch(room string, ev *Event, exclude *Client) int {
	delivered := 0
	for _, c := range d.registry.Members(room) {
		if c == exclude {
			continue
		}
		if c.Deliver(ev) {
			delivered++
			continue
		}
		d.log.Debug().
			Str("client_id", c.ID).
			Str("room", room).
			Stringer("event", ev.Kind).
			Msg("dropped event for closed or slow client")
	}
	return delivered
}
