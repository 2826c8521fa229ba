package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/transcript"
)

// TranscriptHandler imports exported chat transcripts into a contact's
// history.
type TranscriptHandler struct {
	service *transcript.Service
	logger  *slog.Logger
}

func NewTranscriptHandler(log *slog.Logger, service *transcript.Service) *TranscriptHandler {
	return &TranscriptHandler{
		service: service,
		logger:  log.With(slog.String("handler", "transcript")),
	}
}

func (h *TranscriptHandler) Register(e *echo.Echo) {
	e.POST("/import/transcript", h.Import)
}

type importRequest struct {
	JID       string `json:"jid"`
	Text      string `json:"text"`
	SelfLabel string `json:"self_label"`
	DayFirst  bool   `json:"day_first"`
}

// Import godoc
// @Summary Import an exported chat transcript
// @Description Parses the export, deduplicates against existing history, and merges. Unknown contacts are ignored silently.
// @Tags import
// @Param payload body importRequest true "Transcript"
// @Success 200 {object} transcript.Result
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /import/transcript [post]
func (h *TranscriptHandler) Import(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.JID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "jid is required")
	}
	result, err := h.service.Import(c.Request().Context(), req.JID, req.Text, req.SelfLabel, req.DayFirst)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
