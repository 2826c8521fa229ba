package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/persona"
	"github.com/chatpilot/chatpilot/internal/reply"
)

// PersonaHandler manages the operator's facts, personality traits, and
// knowledge gaps.
type PersonaHandler struct {
	service *persona.Service
	engine  *reply.Engine
	logger  *slog.Logger
}

func NewPersonaHandler(log *slog.Logger, service *persona.Service, engine *reply.Engine) *PersonaHandler {
	return &PersonaHandler{
		service: service,
		engine:  engine,
		logger:  log.With(slog.String("handler", "persona")),
	}
}

func (h *PersonaHandler) Register(e *echo.Echo) {
	group := e.Group("/persona")
	group.GET("/facts", h.Facts)
	group.POST("/facts", h.AddFact)
	group.PUT("/facts/:idx", h.UpdateFact)
	group.DELETE("/facts/:idx", h.RemoveFact)
	group.GET("/traits", h.Traits)
	group.POST("/traits", h.AddTrait)
	group.PUT("/traits/:idx", h.UpdateTrait)
	group.DELETE("/traits/:idx", h.RemoveTrait)
	group.GET("/gaps", h.Gaps)
	group.POST("/gaps", h.FillGap)
}

type entryRequest struct {
	Entry string `json:"entry"`
}

// Facts godoc
// @Summary List persona facts
// @Tags persona
// @Success 200 {array} string
// @Failure 500 {object} ErrorResponse
// @Router /persona/facts [get]
func (h *PersonaHandler) Facts(c echo.Context) error {
	facts, err := h.service.Facts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, facts)
}

func (h *PersonaHandler) AddFact(c echo.Context) error {
	entry, err := bindEntry(c)
	if err != nil {
		return err
	}
	if err := h.service.AddFact(c.Request().Context(), entry); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusCreated)
}

func (h *PersonaHandler) UpdateFact(c echo.Context) error {
	idx, err := entryIndex(c)
	if err != nil {
		return err
	}
	entry, err := bindEntry(c)
	if err != nil {
		return err
	}
	if err := h.service.UpdateFact(c.Request().Context(), idx, entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PersonaHandler) RemoveFact(c echo.Context) error {
	idx, err := entryIndex(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveFact(c.Request().Context(), idx); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Traits godoc
// @Summary List personality traits
// @Tags persona
// @Success 200 {array} string
// @Failure 500 {object} ErrorResponse
// @Router /persona/traits [get]
func (h *PersonaHandler) Traits(c echo.Context) error {
	traits, err := h.service.Traits(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, traits)
}

func (h *PersonaHandler) AddTrait(c echo.Context) error {
	entry, err := bindEntry(c)
	if err != nil {
		return err
	}
	if err := h.service.AddTrait(c.Request().Context(), entry); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusCreated)
}

func (h *PersonaHandler) UpdateTrait(c echo.Context) error {
	idx, err := entryIndex(c)
	if err != nil {
		return err
	}
	entry, err := bindEntry(c)
	if err != nil {
		return err
	}
	if err := h.service.UpdateTrait(c.Request().Context(), idx, entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PersonaHandler) RemoveTrait(c echo.Context) error {
	idx, err := entryIndex(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveTrait(c.Request().Context(), idx); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Gaps godoc
// @Summary List open knowledge gaps
// @Tags persona
// @Success 200 {array} string
// @Failure 500 {object} ErrorResponse
// @Router /persona/gaps [get]
func (h *PersonaHandler) Gaps(c echo.Context) error {
	gaps, err := h.service.Gaps(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, gaps)
}

type fillGapRequest struct {
	Gap    string `json:"gap"`
	Value  string `json:"value"`
	Target string `json:"target"`
}

// FillGap godoc
// @Summary Fill a knowledge gap
// @Description Stores the answer on the persona and regenerates pending replies that were blocked on missing information.
// @Tags persona
// @Param payload body fillGapRequest true "Gap answer"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /persona/gaps [post]
func (h *PersonaHandler) FillGap(c echo.Context) error {
	var req fillGapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.engine.FillGap(c.Request().Context(), req.Gap, req.Value, req.Target); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func bindEntry(c echo.Context) (string, error) {
	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	entry := strings.TrimSpace(req.Entry)
	if entry == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "entry is required")
	}
	return entry, nil
}

func entryIndex(c echo.Context) (int, error) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid index")
	}
	return idx, nil
}
