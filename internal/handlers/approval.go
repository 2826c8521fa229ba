package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/approval"
	"github.com/chatpilot/chatpilot/internal/reply"
	"github.com/chatpilot/chatpilot/internal/settings"
)

// ApprovalHandler exposes the review queue and the approved batch drained by
// the messaging client.
type ApprovalHandler struct {
	service  *approval.Service
	settings *settings.Service
	engine   *reply.Engine
	logger   *slog.Logger
}

func NewApprovalHandler(log *slog.Logger, service *approval.Service, settingsSvc *settings.Service, engine *reply.Engine) *ApprovalHandler {
	return &ApprovalHandler{
		service:  service,
		settings: settingsSvc,
		engine:   engine,
		logger:   log.With(slog.String("handler", "approval")),
	}
}

func (h *ApprovalHandler) Register(e *echo.Echo) {
	group := e.Group("/approval")
	group.GET("/pending", h.Pending)
	group.POST("/pending/:idx/approve", h.Approve)
	group.POST("/pending/:idx/reject", h.Reject)
	group.POST("/pending/:idx/regenerate", h.Regenerate)
	group.GET("/batch", h.Batch)
}

type pendingResponse struct {
	Pending         []approval.Item `json:"pending_for_approval"`
	ApprovalEnabled bool            `json:"approval_enabled"`
}

// Pending godoc
// @Summary List replies awaiting approval
// @Tags approval
// @Success 200 {object} pendingResponse
// @Failure 500 {object} ErrorResponse
// @Router /approval/pending [get]
func (h *ApprovalHandler) Pending(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.service.Pending(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pendingResponse{
		Pending:         items,
		ApprovalEnabled: cfg.ApprovalEnabled,
	})
}

type approveRequest struct {
	EditedReply string `json:"edited_reply"`
}

// Approve godoc
// @Summary Approve a pending reply, optionally with edits
// @Tags approval
// @Param idx path int true "Queue index"
// @Param payload body approveRequest false "Optional edited text"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /approval/pending/{idx}/approve [post]
func (h *ApprovalHandler) Approve(c echo.Context) error {
	idx, err := queueIndex(c)
	if err != nil {
		return err
	}
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.service.Approve(c.Request().Context(), idx, req.EditedReply); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Reject godoc
// @Summary Discard a pending reply
// @Tags approval
// @Param idx path int true "Queue index"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /approval/pending/{idx}/reject [post]
func (h *ApprovalHandler) Reject(c echo.Context) error {
	idx, err := queueIndex(c)
	if err != nil {
		return err
	}
	if err := h.service.Reject(c.Request().Context(), idx); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type regenerateRequest struct {
	Instruction string `json:"instruction"`
}

// Regenerate godoc
// @Summary Regenerate a pending reply with reviewer guidance
// @Tags approval
// @Param idx path int true "Queue index"
// @Param payload body regenerateRequest true "Guidance"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /approval/pending/{idx}/regenerate [post]
func (h *ApprovalHandler) Regenerate(c echo.Context) error {
	idx, err := queueIndex(c)
	if err != nil {
		return err
	}
	var req regenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.engine.RegeneratePending(c.Request().Context(), idx, req.Instruction); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type batchResponse struct {
	Items []approval.Approved `json:"items"`
}

// Batch godoc
// @Summary Drain the approved queue
// @Description Returns approved replies and clears the queue; an immediate second call returns an empty list.
// @Tags approval
// @Success 200 {object} batchResponse
// @Failure 500 {object} ErrorResponse
// @Router /approval/batch [get]
func (h *ApprovalHandler) Batch(c echo.Context) error {
	items, err := h.service.Drain(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batchResponse{Items: items})
}

func queueIndex(c echo.Context) (int, error) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid queue index")
	}
	return idx, nil
}
