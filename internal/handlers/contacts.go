package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatpilot/chatpilot/internal/approval"
	"github.com/chatpilot/chatpilot/internal/contacts"
	"github.com/chatpilot/chatpilot/internal/gallery"
	"github.com/chatpilot/chatpilot/internal/history"
	"github.com/chatpilot/chatpilot/internal/persona"
	"github.com/chatpilot/chatpilot/internal/reply"
)

// ContactsHandler manages the roster. Removal cascades across every service
// holding per-contact state.
type ContactsHandler struct {
	service  *contacts.Service
	history  *history.Service
	gallery  *gallery.Service
	persona  *persona.Service
	approval *approval.Service
	engine   *reply.Engine
	logger   *slog.Logger
}

func NewContactsHandler(log *slog.Logger, service *contacts.Service, historySvc *history.Service,
	gallerySvc *gallery.Service, personaSvc *persona.Service, approvalSvc *approval.Service,
	engine *reply.Engine,
) *ContactsHandler {
	return &ContactsHandler{
		service:  service,
		history:  historySvc,
		gallery:  gallerySvc,
		persona:  personaSvc,
		approval: approvalSvc,
		engine:   engine,
		logger:   log.With(slog.String("handler", "contacts")),
	}
}

func (h *ContactsHandler) Register(e *echo.Echo) {
	e.GET("/contacts", h.List)
	e.POST("/contacts", h.Add)
	group := e.Group("/contacts/:jid")
	group.DELETE("", h.Remove)
	group.POST("/toggle", h.Toggle)
	group.POST("/name", h.Rename)
	group.POST("/media-dir", h.SetMediaDir)
	group.GET("/profile", h.Profile)
	group.POST("/profile", h.UpdateProfile)
	group.POST("/summarize", h.Summarize)
}

type contactView struct {
	contacts.Contact
	Info contacts.Info `json:"info"`
}

// List godoc
// @Summary List roster contacts with their per-contact state
// @Tags contacts
// @Success 200 {array} contactView
// @Failure 500 {object} ErrorResponse
// @Router /contacts [get]
func (h *ContactsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	roster, err := h.service.List(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views := make([]contactView, 0, len(roster))
	for _, contact := range roster {
		info, err := h.service.Info(ctx, contact.JID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		views = append(views, contactView{Contact: contact, Info: info})
	}
	return c.JSON(http.StatusOK, views)
}

type addContactRequest struct {
	JID  string `json:"jid"`
	Name string `json:"name"`
}

// Add godoc
// @Summary Add a contact to the roster
// @Tags contacts
// @Param payload body addContactRequest true "Contact"
// @Success 201 {object} contacts.Contact
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /contacts [post]
func (h *ContactsHandler) Add(c echo.Context) error {
	var req addContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	jid := strings.TrimSpace(req.JID)
	if jid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "jid is required")
	}
	ctx := c.Request().Context()
	if err := h.service.Add(ctx, jid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		if err := h.service.Rename(ctx, jid, name); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	contact, err := h.service.Get(ctx, jid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, contact)
}

// Remove godoc
// @Summary Remove a contact and all its state
// @Description Cascades to chat history, sent-image log, contact profile, and both approval queues.
// @Tags contacts
// @Param jid path string true "Contact JID"
// @Success 204
// @Failure 500 {object} ErrorResponse
// @Router /contacts/{jid} [delete]
func (h *ContactsHandler) Remove(c echo.Context) error {
	jid := c.Param("jid")
	ctx := c.Request().Context()
	if err := h.service.Remove(ctx, jid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.history.Remove(ctx, jid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.gallery.RemoveContact(ctx, jid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.persona.RemoveProfile(ctx, jid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.approval.RemoveContact(ctx, jid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info("contact removed", slog.String("jid", jid))
	return c.NoContent(http.StatusNoContent)
}

// Toggle godoc
// @Summary Enable or disable a contact
// @Tags contacts
// @Param jid path string true "Contact JID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} ErrorResponse
// @Router /contacts/{jid}/toggle [post]
func (h *ContactsHandler) Toggle(c echo.Context) error {
	enabled, err := h.service.Toggle(c.Request().Context(), c.Param("jid"))
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"enabled": enabled})
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename godoc
// @Summary Set a contact's display name
// @Tags contacts
// @Param jid path string true "Contact JID"
// @Param payload body renameRequest true "New name"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /contacts/{jid}/name [post]
func (h *ContactsHandler) Rename(c echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if err := h.service.Rename(c.Request().Context(), c.Param("jid"), req.Name); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type mediaDirRequest struct {
	Dir string `json:"dir"`
}

// SetMediaDir godoc
// @Summary Point a contact at a media directory
// @Tags contacts
// @Param jid path string true "Contact JID"
// @Param payload body mediaDirRequest true "Directory path"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /contacts/{jid}/media-dir [post]
func (h *ContactsHandler) SetMediaDir(c echo.Context) error {
	var req mediaDirRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.service.SetMediaDir(c.Request().Context(), c.Param("jid"), req.Dir); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Profile godoc
// @Summary Get a contact's learned profile
// @Tags contacts
// @Param jid path string true "Contact JID"
// @Success 200 {object} persona.Profile
// @Failure 500 {object} ErrorResponse
// @Router /contacts/{jid}/profile [get]
func (h *ContactsHandler) Profile(c echo.Context) error {
	profile, err := h.persona.Profile(c.Request().Context(), c.Param("jid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	Info  *string `json:"info"`
	Style *string `json:"style"`
}

// UpdateProfile godoc
// @Summary Edit a contact's learned profile
// @Tags contacts
// @Param jid path string true "Contact JID"
// @Param payload body profileRequest true "Profile fields"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /contacts/{jid}/profile [post]
func (h *ContactsHandler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	ctx := c.Request().Context()
	jid := c.Param("jid")
	if req.Info != nil {
		if err := h.persona.SetInfo(ctx, jid, *req.Info); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if req.Style != nil {
		if err := h.persona.SetStyle(ctx, jid, *req.Style); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Summarize godoc
// @Summary Generate and store a relationship summary
// @Tags contacts
// @Param jid path string true "Contact JID"
// @Success 200 {object} map[string]string
// @Failure 500 {object} ErrorResponse
// @Router /contacts/{jid}/summarize [post]
func (h *ContactsHandler) Summarize(c echo.Context) error {
	summary, err := h.engine.Summarize(c.Request().Context(), c.Param("jid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": summary})
}
