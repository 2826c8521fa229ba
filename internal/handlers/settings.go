package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/settings"
)

// SettingsHandler exposes runtime settings and the approval toggle.
type SettingsHandler struct {
	service *settings.Service
	logger  *slog.Logger
}

func NewSettingsHandler(log *slog.Logger, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  log.With(slog.String("handler", "settings")),
	}
}

func (h *SettingsHandler) Register(e *echo.Echo) {
	e.GET("/settings", h.Get)
	e.POST("/settings", h.Upsert)
	e.POST("/settings/approval/toggle", h.ToggleApproval)
}

// Get godoc
// @Summary Get runtime settings
// @Tags settings
// @Success 200 {object} settings.Settings
// @Failure 500 {object} ErrorResponse
// @Router /settings [get]
func (h *SettingsHandler) Get(c echo.Context) error {
	resp, err := h.service.Get(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// Upsert godoc
// @Summary Partially update runtime settings
// @Tags settings
// @Param payload body settings.UpsertRequest true "Settings payload"
// @Success 200 {object} settings.Settings
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /settings [post]
func (h *SettingsHandler) Upsert(c echo.Context) error {
	var req settings.UpsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	resp, err := h.service.Upsert(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// ToggleApproval godoc
// @Summary Flip the approval gate
// @Tags settings
// @Success 200 {object} map[string]bool
// @Failure 500 {object} ErrorResponse
// @Router /settings/approval/toggle [post]
func (h *SettingsHandler) ToggleApproval(c echo.Context) error {
	enabled, err := h.service.ToggleApproval(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"approval_enabled": enabled})
}
