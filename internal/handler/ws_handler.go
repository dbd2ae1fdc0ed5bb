package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/hub"
	"github.com/weiawesome/wes-io-chat/internal/service"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	handler := &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     handler.checkOrigin,
	}
	return handler
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and origins on the allow list. "*" allows everything.
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.wsCfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.wsCfg.AllowedOrigins, origin)
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.New().String()
	// The request context ends when this handler returns; the connection
	// outlives it.
	ctx := log.WithConn(context.WithoutCancel(c.Request.Context()), connID)

	client := hub.NewClient(connID, h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	l := log.Ctx(ctx)
	l.Info().Msg("client connected")

	go client.WritePump()
	go client.ReadPump(
		func(cl *hub.Client, message []byte) { h.handleMessage(ctx, cl, message) },
		func(cl *hub.Client) {
			h.service.HandleDisconnect(ctx, cl.ID)
			l := log.Ctx(ctx)
			l.Info().Msg("client disconnected")
		},
	)
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	var frame domain.Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		h.reject(ctx, client, "", fmt.Errorf("%w: %v", domain.ErrBadPayload, err))
		return
	}

	req, err := domain.DecodeRequest(frame.Type, frame.Data)
	if err != nil {
		h.reject(ctx, client, frame.Ack, err)
		return
	}

	ack, err := h.service.Dispatch(ctx, client.ID, req)
	if !domain.Acknowledged(frame.Type) || frame.Ack == "" {
		if err != nil && !errors.Is(err, domain.ErrNotAuthenticated) {
			l := log.Ctx(ctx)
			l.Debug().Err(err).Str(log.FieldEvent, frame.Type).Msg("event failed")
		}
		return
	}

	if err != nil {
		h.hub.Reply(client.ID, frame.Ack, domain.NewErrorAck(err))
		return
	}
	h.hub.Reply(client.ID, frame.Ack, ack)
}

func (h *WSHandler) reject(ctx context.Context, client *hub.Client, ackID string, err error) {
	l := log.Ctx(ctx)
	l.Debug().Err(err).Msg("rejected frame")
	if ackID == "" {
		return
	}
	h.hub.Reply(client.ID, ackID, domain.NewErrorAck(err))
}
