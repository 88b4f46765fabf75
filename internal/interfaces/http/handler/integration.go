package handler

import (
	"net/http"

	"github.com/erp/console/internal/application/integration"
	"github.com/erp/console/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// IntegrationHandler serves the integration test panel
type IntegrationHandler struct {
	BaseHandler
	panel *integration.Panel
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(panel *integration.Panel) *IntegrationHandler {
	return &IntegrationHandler{panel: panel}
}

// RunQuery selects background execution with ?async=true
type RunQuery struct {
	Async bool `form:"async"`
}

// ListProbes returns the status of every probe
func (h *IntegrationHandler) ListProbes(c *gin.Context) {
	h.Success(c, h.panel.Statuses())
}

// RunAll runs every probe concurrently. With ?async=true it returns 202
// and the probes report through ListProbes.
func (h *IntegrationHandler) RunAll(c *gin.Context) {
	var q RunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if q.Async {
		if err := h.panel.StartAll(c.Request.Context()); err != nil {
			h.HandleError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(h.panel.Statuses()))
		return
	}

	statuses, err := h.panel.RunAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statuses)
}

// Run runs one probe
func (h *IntegrationHandler) Run(c *gin.Context) {
	var q RunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	name := c.Param("name")
	if q.Async {
		if err := h.panel.Start(c.Request.Context(), name); err != nil {
			h.HandleError(c, err)
			return
		}
		status, err := h.panel.Status(name)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.NewSuccessResponse(status))
		return
	}

	status, err := h.panel.Run(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}
