package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minicom/internal/core"
	"github.com/vovakirdan/minicom/internal/proto"
	"github.com/vovakirdan/minicom/internal/store"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomHandlers provides read-only HTTP handlers for rooms.
type RoomHandlers struct {
	hub          *core.Hub
	historyLimit int
	log          *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, historyLimit int, logger *zerolog.Logger) *RoomHandlers {
	if historyLimit <= 0 {
		historyLimit = store.DefaultHistoryLimit
	}
	return &RoomHandlers{
		hub:          hub,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// RoomResponse represents an active room in API responses.
type RoomResponse struct {
	Room    string `json:"room"`
	Members int    `json:"members"`
}

// MessagesResponse is the history of one room, oldest first.
type MessagesResponse struct {
	Room     string              `json:"room"`
	Messages []proto.MessageData `json:"messages"`
}

// ListRooms handles listing rooms with connected members.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.hub.Rooms()

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomResponse{Room: room.Name, Members: room.Members})
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// ListMessages handles reading recent room history.
// GET /api/rooms/:room/messages?limit=N
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	room := c.Param("room")
	if len(room) > MaxRoomLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room"})
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil {
			n, err = store.ClampLimit(n)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	messages, err := h.hub.History(c.Request.Context(), room, limit)
	if err != nil {
		if errors.Is(err, store.ErrInvalidLimit) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		h.log.Error().Err(err).Str("room", room).Msg("failed to read history")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "message store unavailable"})
		return
	}

	c.JSON(http.StatusOK, MessagesResponse{Room: room, Messages: messagesData(messages)})
}
