package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/weiawesome/wes-io-chat/internal/hub"
	"github.com/weiawesome/wes-io-chat/internal/service"
	"github.com/weiawesome/wes-io-chat/pkg/response"
)

type HTTPHandler struct {
	chatService service.ChatService
	hub         *hub.Hub
	maxLimit    int
}

// NewHTTPHandler creates the read-only REST surface. maxLimit caps history
// pages and is also their default size.
func NewHTTPHandler(chatService service.ChatService, h *hub.Hub, maxLimit int) *HTTPHandler {
	return &HTTPHandler{
		chatService: chatService,
		hub:         h,
		maxLimit:    maxLimit,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/users", h.GetUsers)
		api.GET("/rooms", h.GetRooms)
		api.GET("/rooms/:room/messages", h.GetMessages)
	}

	r.GET("/health", h.HealthCheck)
}

func (h *HTTPHandler) GetUsers(c *gin.Context) {
	response.Success(c, h.chatService.OnlineUsers())
}

func (h *HTTPHandler) GetRooms(c *gin.Context) {
	response.Success(c, h.chatService.Rooms())
}

func (h *HTTPHandler) GetMessages(c *gin.Context) {
	room := c.Param("room")
	if room == "" {
		response.BadRequest(c, "room is required")
		return
	}

	limit := h.maxLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		if parsedLimit < limit {
			limit = parsedLimit
		}
	}

	response.Success(c, h.chatService.RoomHistory(room, c.Query("before"), limit))
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.hub.Count(),
	})
}
