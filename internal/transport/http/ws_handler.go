package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minicom/internal/config"
	"github.com/vovakirdan/minicom/internal/core"
	"github.com/vovakirdan/minicom/internal/proto"
)

// MaxRoomLength bounds room keys taken from the request.
const MaxRoomLength = 100

const maxFrameBytes = 64 << 10

var errClientClosed = errors.New("client closed by hub")

// WSHandler upgrades HTTP connections and bridges them to a core.Session.
type WSHandler struct {
	hub            *core.Hub
	log            *zerolog.Logger
	sendBuffer     int
	rateLimit      int
	originPatterns []string
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:            hub,
		log:            logger,
		sendBuffer:     cfg.SendBuffer,
		rateLimit:      cfg.RateLimitPerMinute,
		originPatterns: cfg.AllowedOrigins,
	}
}

// Handle serves one WebSocket connection until either side closes it.
func (h *WSHandler) Handle(c *gin.Context) {
	room, ok := roomFromRequest(c)
	if !ok {
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid room"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: len(h.originPatterns) == 0,
		OriginPatterns:     h.originPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	client := core.NewClient(uuid.NewString(), room, h.sendBuffer)
	session := h.hub.NewSession(client)
	defer session.Close()
	if err := session.Open(ctx); err != nil {
		h.log.Warn().Err(err).Str("client_id", client.ID).Str("room", room).Msg("ws session not opened")
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	other := <-errCh

	// The write loop already closed the connection for a hub shutdown.
	if errors.Is(err, errClientClosed) || errors.Is(other, errClientClosed) {
		return
	}

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	client := session.Client()
	limiter := newRateLimiter(h.rateLimit)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("read ws inbound")
			return err
		}
		if typ != websocket.MessageText {
			client.Deliver(core.ErrorEvent(core.ErrCodeBadRequest, "only text frames are supported"))
			continue
		}

		inbound, err := proto.DecodeInbound(data)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("failed to decode inbound")
			client.Deliver(core.ErrorEvent(core.ErrCodeBadRequest, "malformed frame"))
			continue
		}

		cmd, ok := inboundToCommand(inbound)
		if !ok {
			h.log.Debug().Str("client_id", client.ID).Str("type", inbound.Type).Msg("ignoring unknown inbound type")
			continue
		}
		if cmd.Kind == core.CommandChatMessage && !limiter.Allow() {
			client.Deliver(core.ErrorEvent(core.ErrCodeRateLimited, "too many messages"))
			continue
		}

		if err := session.Handle(ctx, *cmd); err != nil {
			if errors.Is(err, core.ErrSessionClosed) {
				return nil
			}
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("command failed")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			h.flush(ctx, conn, client)
			// Closing here unblocks the read loop with a close error instead of
			// a canceled read, which would replace the status.
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return errClientClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// flush writes whatever is still queued for a client that is going away.
func (h *WSHandler) flush(ctx context.Context, conn *websocket.Conn, client *core.Client) {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				return
			}
		default:
			return
		}
	}
}

// roomFromRequest resolves the room from the path, then the query, then the default.
func roomFromRequest(c *gin.Context) (string, bool) {
	room := strings.Trim(c.Param("room"), "/")
	if room == "" {
		room = c.Query("room")
	}
	if room == "" {
		room = core.DefaultRoom
	}
	if len(room) > MaxRoomLength {
		return "", false
	}
	return room, true
}
