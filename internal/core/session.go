package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// State is the lifecycle position of a Session.
type State int32

const (
	StateConnecting State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session interprets the commands of one client. Handle must be called from
// a single goroutine so commands are applied in arrival order.
type Session struct {
	hub    *Hub
	client *Client
	log    zerolog.Logger
	state  atomic.Int32

	mu       sync.Mutex
	username string
}

// Client returns the connection this session drives.
func (s *Session) Client() *Client {
	return s.client
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Username returns the established username, or "" if none was announced yet.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Open joins the client's room and sends it the recent history. Room events
// published while the history is read are delivered after it, minus chat
// messages the history already contains.
// A failing store yields an empty history rather than an error.
func (s *Session) Open(ctx context.Context) error {
	if s.hub.closed.Load() {
		return ErrHubClosed
	}
	switch s.State() {
	case StateJoined:
		return ErrAlreadyOpen
	case StateClosed:
		return ErrSessionClosed
	}

	room := s.client.Room
	s.client.hold()
	s.hub.registry.Join(room, s.client)
	if s.State() == StateClosed || s.hub.closed.Load() {
		s.hub.registry.Leave(room, s.client)
		return ErrSessionClosed
	}

	history, err := s.hub.History(ctx, room, s.hub.historyLimit)
	if err != nil {
		s.log.Warn().Err(err).Msg("history unavailable, sending empty history")
		history = []Message{}
	}

	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateJoined)) {
		s.hub.registry.Leave(room, s.client)
		return ErrSessionClosed
	}

	s.client.release(&Event{
		Kind:      EventHistory,
		Room:      room,
		Timestamp: s.hub.timestamp(),
		Messages:  history,
	})
	s.log.Info().Int("history", len(history)).Msg("client joined room")
	return nil
}

// Close leaves the room and, if the client had named itself, tells the
// remaining members it went offline. Only the first call has any effect.
func (s *Session) Close() {
	prev := State(s.state.Swap(int32(StateClosed)))
	if prev == StateClosed {
		return
	}

	room := s.client.Room
	if username := s.Username(); prev == StateJoined && username != "" {
		s.announce(username, StatusOffline)
	}
	s.hub.registry.Leave(room, s.client)
	s.client.Close()
	s.hub.untrack()
	s.log.Info().Str("username", s.Username()).Msg("client left room")
}

// Handle applies one client command. It returns ErrSessionClosed once the
// session is closed; other errors are already reported to the client.
func (s *Session) Handle(ctx context.Context, cmd Command) error {
	if s.State() != StateJoined {
		return ErrSessionClosed
	}

	switch cmd.Kind {
	case CommandChatMessage:
		return s.handleChatMessage(ctx, cmd)
	case CommandTyping:
		s.handleTyping(cmd)
	case CommandUserJoin:
		s.handleUserJoin(cmd)
	default:
		s.log.Debug().Int("kind", int(cmd.Kind)).Msg("ignoring unknown command")
	}
	return nil
}

func (s *Session) handleChatMessage(ctx context.Context, cmd Command) error {
	username := commandUsername(cmd)
	if s.establish(username) {
		s.announce(username, StatusOnline)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.hub.storeTimeout)
	stored, err := s.hub.store.AppendMessage(storeCtx, s.client.Room, username, cmd.Content)
	cancel()
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to persist chat message")
		s.client.Deliver(ErrorEvent(ErrCodeStoreUnavailable, "message could not be saved"))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if s.State() != StateJoined {
		return ErrSessionClosed
	}

	msg := messageFromStore(stored)
	s.hub.dispatcher.Dispatch(s.client.Room, &Event{
		Kind:      EventChatMessage,
		Room:      s.client.Room,
		Username:  msg.Username,
		Timestamp: msg.CreatedAt,
		Message:   msg,
	}, nil)
	return nil
}

func (s *Session) handleTyping(cmd Command) {
	s.hub.dispatcher.Dispatch(s.client.Room, &Event{
		Kind:      EventTyping,
		Room:      s.client.Room,
		Username:  commandUsername(cmd),
		IsTyping:  cmd.IsTyping,
		Timestamp: s.hub.timestamp(),
	}, s.client)
}

func (s *Session) handleUserJoin(cmd Command) {
	username := commandUsername(cmd)
	if s.establish(username) {
		s.announce(username, StatusOnline)
	}
}

// establish records the username if none is set yet and reports whether it did.
func (s *Session) establish(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.username != "" {
		return false
	}
	s.username = username
	return true
}

func (s *Session) announce(username string, status PresenceStatus) {
	s.hub.dispatcher.Dispatch(s.client.Room, &Event{
		Kind:      EventPresence,
		Room:      s.client.Room,
		Username:  username,
		Status:    status,
		Timestamp: s.hub.timestamp(),
	}, s.client)
}
