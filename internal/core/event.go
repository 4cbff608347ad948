package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventHistory delivers recent room history to a client that just joined.
	EventHistory EventKind = iota
	// EventChatMessage carries a persisted chat message to every room member.
	EventChatMessage
	// EventTyping notifies other members that someone started or stopped typing.
	EventTyping
	// EventPresence notifies other members that a participant came online or went offline.
	EventPresence
	// EventError notifies a single client about a failed operation.
	EventError
)

var eventKindNames = [...]string{
	EventHistory:     "message_history",
	EventChatMessage: "chat_message",
	EventTyping:      "typing_indicator",
	EventPresence:    "user_status",
	EventError:       "error",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// PresenceStatus is the online state announced for a participant.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// Event is sent to clients to describe what happened in a room.
// A single Event value may be shared by many recipients and must not be mutated after dispatch.
type Event struct {
	Kind      EventKind
	Room      string
	Username  string
	Status    PresenceStatus // EventPresence
	IsTyping  bool           // EventTyping
	Timestamp time.Time
	Message   Message   // EventChatMessage
	Messages  []Message // EventHistory
	Error     *CoreError
}
