package http

import (
	"github.com/vovakirdan/minicom/internal/core"
	"github.com/vovakirdan/minicom/internal/proto"
)

// inboundToCommand maps a decoded frame to a core command. Unknown frame
// types report false and are dropped by the caller.
func inboundToCommand(inbound proto.Inbound) (*core.Command, bool) {
	switch inbound.Type {
	case proto.InboundTypeChatMessage:
		return &core.Command{
			Kind:     core.CommandChatMessage,
			Username: inbound.Username,
			Content:  inbound.Message,
		}, true
	case proto.InboundTypeTyping:
		return &core.Command{
			Kind:     core.CommandTyping,
			Username: inbound.Username,
			IsTyping: inbound.IsTyping,
		}, true
	case proto.InboundTypeUserJoin:
		return &core.Command{
			Kind:     core.CommandUserJoin,
			Username: inbound.Username,
		}, true
	default:
		return nil, false
	}
}

func messageData(msg core.Message) proto.MessageData {
	return proto.MessageData{
		ID:        msg.ID,
		Username:  msg.Username,
		Content:   msg.Content,
		Timestamp: proto.FormatTime(msg.CreatedAt),
		Room:      msg.Room,
	}
}

func messagesData(messages []core.Message) []proto.MessageData {
	out := make([]proto.MessageData, 0, len(messages))
	for _, msg := range messages {
		out = append(out, messageData(msg))
	}
	return out
}

func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventHistory:
		return proto.HistoryEvent{
			Type:     proto.OutboundTypeHistory,
			Messages: messagesData(event.Messages),
		}
	case core.EventChatMessage:
		return proto.ChatMessageEvent{
			Type:    proto.OutboundTypeChatMessage,
			Message: messageData(event.Message),
		}
	case core.EventTyping:
		return proto.TypingEvent{
			Type:      proto.OutboundTypeTyping,
			Username:  event.Username,
			IsTyping:  event.IsTyping,
			Timestamp: proto.FormatTime(event.Timestamp),
		}
	case core.EventPresence:
		return proto.UserStatusEvent{
			Type:      proto.OutboundTypeUserStatus,
			Username:  event.Username,
			Status:    string(event.Status),
			Timestamp: proto.FormatTime(event.Timestamp),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.ErrorEvent{Type: proto.OutboundTypeError, Error: proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.ErrorEvent{
			Type:  proto.OutboundTypeError,
			Error: proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.ErrorEvent{Type: proto.OutboundTypeError, Error: proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}
