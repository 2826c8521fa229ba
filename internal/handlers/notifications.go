package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/notify"
)

// NotificationsHandler drains the operator notification feed.
type NotificationsHandler struct {
	service *notify.Service
	logger  *slog.Logger
}

func NewNotificationsHandler(log *slog.Logger, service *notify.Service) *NotificationsHandler {
	return &NotificationsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "notifications")),
	}
}

func (h *NotificationsHandler) Register(e *echo.Echo) {
	e.GET("/notifications", h.Drain)
}

// Drain godoc
// @Summary Fetch and clear operator notifications
// @Tags notifications
// @Success 200 {array} notify.Notification
// @Failure 500 {object} ErrorResponse
// @Router /notifications [get]
func (h *NotificationsHandler) Drain(c echo.Context) error {
	items, err := h.service.Drain(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
