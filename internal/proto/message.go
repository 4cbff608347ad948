package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	InboundTypeChatMessage = "chat_message"
	InboundTypeTyping      = "typing"
	InboundTypeUserJoin    = "user_join"

	OutboundTypeHistory     = "message_history"
	OutboundTypeChatMessage = "chat_message"
	OutboundTypeTyping      = "typing_indicator"
	OutboundTypeUserStatus  = "user_status"
	OutboundTypeError       = "error"
)

// TimeFormat renders timestamps as ISO-8601 with microseconds and a numeric offset.
// TimeFormatWhole is used instead when the microsecond part is zero.
const (
	TimeFormat      = "2006-01-02T15:04:05.000000-07:00"
	TimeFormatWhole = "2006-01-02T15:04:05-07:00"
)

// ErrMalformed is returned for frames that are not a JSON object.
var ErrMalformed = errors.New("malformed frame")

// Inbound is a frame coming from the client. Absent fields keep their zero value.
type Inbound struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
	IsTyping bool   `json:"is_typing"`
}

// DecodeInbound parses a client frame. Fields of the wrong JSON type are
// left at their zero value instead of failing the whole frame.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return in, nil
		}
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return in, nil
}

// MessageData is the wire form of a stored chat message.
type MessageData struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Room      string `json:"room"`
}

// HistoryEvent is sent privately right after a client joins.
type HistoryEvent struct {
	Type     string        `json:"type"`
	Messages []MessageData `json:"messages"`
}

// ChatMessageEvent carries one stored message to every room member.
type ChatMessageEvent struct {
	Type    string      `json:"type"`
	Message MessageData `json:"message"`
}

// TypingEvent tells other members someone is typing.
type TypingEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	IsTyping  bool   `json:"is_typing"`
	Timestamp string `json:"timestamp"`
}

// UserStatusEvent announces a participant going online or offline.
type UserStatusEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorEvent reports a failed operation to a single client.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error Error  `json:"error"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// FormatTime renders t in UTC, omitting the fraction on whole seconds.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(TimeFormatWhole)
	}
	return t.Format(TimeFormat)
}
