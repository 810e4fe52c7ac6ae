package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/config"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/hub"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/service"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/middleware"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades realtime connections and dispatches their frames.
type WSHandler struct {
	hub          *hub.Hub
	relay        service.RelayService
	tokens       middleware.TokenValidator
	wsCfg        config.WebSocketConfig
	requireToken bool
}

// NewWSHandler creates the realtime endpoint. tokens may be nil unless
// rtCfg.RequireToken is set.
func NewWSHandler(h *hub.Hub, relay service.RelayService, tokens middleware.TokenValidator, wsCfg config.WebSocketConfig, rtCfg config.RealtimeConfig) *WSHandler {
	return &WSHandler{
		hub:          h,
		relay:        relay,
		tokens:       tokens,
		wsCfg:        wsCfg,
		requireToken: rtCfg.RequireToken,
	}
}

// RegisterRoutes serves the relay on /ws and on upgrade requests to /.
// Plain requests to / go to fallback, or 404 when it is nil.
func (h *WSHandler) RegisterRoutes(r *gin.Engine, fallback gin.HandlerFunc) {
	r.GET("/ws", h.HandleWebSocket)
	r.GET("/", func(c *gin.Context) {
		if websocket.IsWebSocketUpgrade(c.Request) {
			h.HandleWebSocket(c)
			return
		}
		if fallback != nil {
			fallback(c)
			return
		}
		response.NotFound(c, "not found")
	})
}

// HandleWebSocket upgrades the request and starts the connection pumps.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	var verified int64
	if h.requireToken {
		userID, ok := h.verify(c.Request)
		if !ok {
			response.Unauthorized(c, "valid token required")
			return
		}
		verified = userID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New().String()
	client := hub.NewClient(id, h.hub, conn, h.wsCfg)
	if verified != 0 {
		client.Session.SetVerifiedUserID(verified)
	}

	// The request context ends when this handler returns.
	ctx := log.WithConn(context.WithoutCancel(c.Request.Context()), id)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(ctx, h.handleMessage, h.relay.HandleDisconnect)

	cl := log.Ctx(ctx)
	cl.Info().Bool("verified", verified != 0).Msg("realtime connection opened")
}

func (h *WSHandler) verify(r *http.Request) (int64, bool) {
	if h.tokens == nil {
		return 0, false
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		t, ok := middleware.BearerToken(r)
		if !ok {
			return 0, false
		}
		token = t
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	l := log.Ctx(ctx)

	frame, err := domain.ParseFrame(message)
	if err != nil {
		l.Warn().Err(err).Int("size", len(message)).Msg("dropping malformed frame")
		return
	}

	switch f := frame.(type) {
	case *domain.AuthFrame:
		err = h.relay.HandleAuth(ctx, client, f)
	case *domain.ChatFrame:
		err = h.relay.HandleChat(ctx, client, f)
	}
	if err == nil {
		return
	}

	if service.IsIgnoredFrame(err) {
		l.Debug().Err(err).Str(log.FieldFrameType, frame.FrameType()).Msg("frame ignored")
		return
	}
	l.Error().Err(err).Str(log.FieldFrameType, frame.FrameType()).Msg("frame handling failed")
}
