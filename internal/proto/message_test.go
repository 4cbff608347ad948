package proto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Inbound
		wantErr bool
	}{
		{
			name:  "chat message",
			frame: `{"type":"chat_message","username":"alice","message":"hi"}`,
			want:  Inbound{Type: InboundTypeChatMessage, Username: "alice", Message: "hi"},
		},
		{
			name:  "typing with flag",
			frame: `{"type":"typing","username":"alice","is_typing":true}`,
			want:  Inbound{Type: InboundTypeTyping, Username: "alice", IsTyping: true},
		},
		{
			name:  "missing fields keep zero values",
			frame: `{"type":"typing"}`,
			want:  Inbound{Type: InboundTypeTyping},
		},
		{
			name:  "wrong field type is tolerated",
			frame: `{"type":"typing","username":"bob","is_typing":"yes"}`,
			want:  Inbound{Type: InboundTypeTyping, Username: "bob"},
		},
		{
			name:  "extra fields are ignored",
			frame: `{"type":"user_join","username":"carol","avatar":"x.png"}`,
			want:  Inbound{Type: InboundTypeUserJoin, Username: "carol"},
		},
		{
			name:    "not json",
			frame:   `hello`,
			wantErr: true,
		},
		{
			name:    "json array",
			frame:   `[1,2]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.frame))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	zone := time.FixedZone("X", 3600)
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{name: "microseconds", in: time.Date(2026, time.January, 2, 3, 4, 5, 123456789, zone), want: "2026-01-02T02:04:05.123456+00:00"},
		{name: "leading zero micros", in: time.Date(2026, time.January, 2, 3, 4, 5, 1000, zone), want: "2026-01-02T02:04:05.000001+00:00"},
		{name: "whole second", in: time.Date(2026, time.January, 2, 3, 4, 5, 0, zone), want: "2026-01-02T02:04:05+00:00"},
		{name: "sub-microsecond only", in: time.Date(2026, time.January, 2, 3, 4, 5, 999, zone), want: "2026-01-02T02:04:05+00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(tt.in); got != tt.want {
				t.Fatalf("FormatTime() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHistoryEventEncodesEmptyList(t *testing.T) {
	raw, err := json.Marshal(HistoryEvent{Type: OutboundTypeHistory, Messages: []MessageData{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"type":"message_history","messages":[]}` {
		t.Fatalf("unexpected encoding: %s", raw)
	}
}
