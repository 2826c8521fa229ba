package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/objectives"
)

// ObjectivesHandler manages per-contact conversational goals.
type ObjectivesHandler struct {
	service *objectives.Service
	logger  *slog.Logger
}

func NewObjectivesHandler(log *slog.Logger, service *objectives.Service) *ObjectivesHandler {
	return &ObjectivesHandler{
		service: service,
		logger:  log.With(slog.String("handler", "objectives")),
	}
}

func (h *ObjectivesHandler) Register(e *echo.Echo) {
	group := e.Group("/contacts/:jid/objectives")
	group.POST("", h.Create)
	group.POST("/:id/complete", h.Complete)
	group.DELETE("/:id", h.Delete)
}

// Create godoc
// @Summary Add an objective with a generated strategy
// @Tags objectives
// @Param jid path string true "Contact JID"
// @Param payload body objectives.CreateRequest true "Objective"
// @Success 201 {object} contacts.Objective
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /contacts/{jid}/objectives [post]
func (h *ObjectivesHandler) Create(c echo.Context) error {
	var req objectives.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	obj, err := h.service.Create(c.Request().Context(), c.Param("jid"), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, obj)
}

// Complete godoc
// @Summary Manually mark an objective completed
// @Tags objectives
// @Param jid path string true "Contact JID"
// @Param id path string true "Objective ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /contacts/{jid}/objectives/{id}/complete [post]
func (h *ObjectivesHandler) Complete(c echo.Context) error {
	if err := h.service.Complete(c.Request().Context(), c.Param("jid"), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete an objective
// @Tags objectives
// @Param jid path string true "Contact JID"
// @Param id path string true "Objective ID"
// @Success 204
// @Failure 500 {object} ErrorResponse
// @Router /contacts/{jid}/objectives/{id} [delete]
func (h *ObjectivesHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("jid"), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
