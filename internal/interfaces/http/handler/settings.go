package handler

import (
	"encoding/json"
	"net/http"

	appsettings "github.com/erp/console/internal/application/settings"
	"github.com/erp/console/internal/domain/settings"
	"github.com/erp/console/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SettingsHandler serves the settings facade
type SettingsHandler struct {
	BaseHandler
	service *appsettings.Service
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(service *appsettings.Service) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// SectionURI is the :section path parameter
type SectionURI struct {
	Section string `uri:"section" binding:"required,settings_section"`
}

// ResetRequest must carry confirm=true
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

// RestoreRequest selects a backup; an empty key restores the latest one
type RestoreRequest struct {
	Key string `json:"key"`
}

// revealQuery parses the reveal query parameters. Secret fields are masked
// in every response unless listed, e.g. ?reveal=ai.api_key or ?reveal=all.
func (h *SettingsHandler) revealQuery(c *gin.Context) (settings.Reveal, bool) {
	r, err := settings.ParseReveal(c.QueryArray("reveal"))
	if err != nil {
		h.HandleError(c, err)
		return settings.Reveal{}, false
	}
	return r, true
}

// Get returns the current settings
func (h *SettingsHandler) Get(c *gin.Context) {
	reveal, ok := h.revealQuery(c)
	if !ok {
		return
	}
	s, err := h.service.Load(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.Masked(reveal))
}

// SaveAll replaces every settings section
func (h *SettingsHandler) SaveAll(c *gin.Context) {
	reveal, ok := h.revealQuery(c)
	if !ok {
		return
	}
	var req settings.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	s, err := h.service.SaveAll(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.Masked(reveal))
}

// SaveSection updates the given fields of one section
func (h *SettingsHandler) SaveSection(c *gin.Context) {
	reveal, ok := h.revealQuery(c)
	if !ok {
		return
	}
	var uri SectionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		h.BindError(c, err)
		return
	}
	s, err := h.service.Save(c.Request.Context(), uri.Section, fields)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.Masked(reveal))
}

// Reset clears every stored setting. The body must be {"confirm": true}.
func (h *SettingsHandler) Reset(c *gin.Context) {
	reveal, ok := h.revealQuery(c)
	if !ok {
		return
	}
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !req.Confirm {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeConfirmRequired, "Reset must be confirmed")
		return
	}
	s, err := h.service.ResetAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.Masked(reveal))
}

// Export returns every stored entry of the namespace, secrets masked
// unless revealed. Import accepts the result back.
func (h *SettingsHandler) Export(c *gin.Context) {
	reveal, ok := h.revealQuery(c)
	if !ok {
		return
	}
	data, err := h.service.ExportJSON(c.Request.Context(), reveal)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, json.RawMessage(data))
}

// Import stores every entry of a previously exported JSON object
func (h *SettingsHandler) Import(c *gin.Context) {
	reveal, ok := h.revealQuery(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}
	s, err := h.service.Import(c.Request.Context(), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.Masked(reveal))
}

// Validate lists missing configuration
func (h *SettingsHandler) Validate(c *gin.Context) {
	res, err := h.service.Validate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Status returns the configured badge of every section
func (h *SettingsHandler) Status(c *gin.Context) {
	res, err := h.service.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// TestConnections probes the backend and AI provider with the stored credentials
func (h *SettingsHandler) TestConnections(c *gin.Context) {
	res, err := h.service.TestConnections(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Backup uploads the exported namespace to object storage
func (h *SettingsHandler) Backup(c *gin.Context) {
	res, err := h.service.Backup(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// ListBackups returns the stored backups
func (h *SettingsHandler) ListBackups(c *gin.Context) {
	res, err := h.service.ListBackups(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// Restore imports a stored backup
func (h *SettingsHandler) Restore(c *gin.Context) {
	reveal, ok := h.revealQuery(c)
	if !ok {
		return
	}
	var req RestoreRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	s, err := h.service.Restore(c.Request.Context(), req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.Masked(reveal))
}
