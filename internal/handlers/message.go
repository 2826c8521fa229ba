package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/reply"
)

// MessageHandler receives inbound chat messages from the messaging client.
type MessageHandler struct {
	engine *reply.Engine
	logger *slog.Logger
}

func NewMessageHandler(log *slog.Logger, engine *reply.Engine) *MessageHandler {
	return &MessageHandler{
		engine: engine,
		logger: log.With(slog.String("handler", "message")),
	}
}

func (h *MessageHandler) Register(e *echo.Echo) {
	e.POST("/messages/reply", h.Reply)
}

type replyRequest struct {
	Sender  string `json:"sender"`
	JID     string `json:"jid"`
	Message string `json:"message"`
	Text    string `json:"text"`
}

// Reply godoc
// @Summary Compute a reply for an inbound message
// @Description Routes the message through canned rules, generation, and the approval gate. An empty reply means nothing should be sent.
// @Tags messages
// @Param payload body replyRequest true "Inbound message"
// @Success 200 {object} reply.Response
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /messages/reply [post]
func (h *MessageHandler) Reply(c echo.Context) error {
	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	jid := strings.TrimSpace(req.Sender)
	if jid == "" {
		jid = strings.TrimSpace(req.JID)
	}
	if jid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sender is required")
	}
	msg := req.Message
	if msg == "" {
		msg = req.Text
	}
	resp, err := h.engine.Reply(c.Request().Context(), jid, msg)
	if err != nil {
		h.logger.Error("reply failed", slog.String("jid", jid), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}
