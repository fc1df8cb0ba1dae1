package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/pesoflow/lending_backend/internal/middleware"
)

// approvalHandler handles HTTP requests for the approval queue, the audit
// log, and authority limit management.
type approvalHandler struct {
	authorityService portssvc.AuthoritySvcFacade
}

func newApprovalHandler(authorityService portssvc.AuthoritySvcFacade) *approvalHandler {
	return &approvalHandler{authorityService: authorityService}
}

// listPendingApprovals is the manager's escalation queue.
func (h *approvalHandler) listPendingApprovals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	logs, err := h.authorityService.ListPendingApprovals(c.Request.Context(), principal)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"approvals": dto.ToActionLogResponses(logs)})
}

// resolveApproval applies a manager's approve/reject decision.
func (h *approvalHandler) resolveApproval(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	logID := c.Param("logID")

	var req dto.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for resolveApproval", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	resolution, err := h.authorityService.ResolveApproval(c.Request.Context(), principal, logID, req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToActionLogResponse(resolution))
}

// listActionLogs returns filtered audit log history.
func (h *approvalHandler) listActionLogs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var params dto.ListActionLogsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	logs, err := h.authorityService.ListActionLogs(c.Request.Context(), principal, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": dto.ToActionLogResponses(logs)})
}

// getLimits returns the limits version in force for a collector today.
func (h *approvalHandler) getLimits(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	limits, err := h.authorityService.GetLimits(c.Request.Context(), principal, c.Param("collectorID"))
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLimitsResponse(limits))
}

// updateLimits creates a new limits version for a collector.
func (h *approvalHandler) updateLimits(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for updateLimits", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	limits, err := h.authorityService.UpdateLimits(c.Request.Context(), principal, c.Param("collectorID"), req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLimitsResponse(limits))
}

// getUsage reports today's rolling usage against the collector's limits.
func (h *approvalHandler) getUsage(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	usage, err := h.authorityService.GetTodayUsage(c.Request.Context(), principal, c.Param("collectorID"))
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

// registerApprovalRoutes registers approval, audit log, and limits routes.
func registerApprovalRoutes(group *gin.RouterGroup, authorityService portssvc.AuthoritySvcFacade) {
	h := newApprovalHandler(authorityService)

	approvals := group.Group("/approvals")
	{
		approvals.GET("", h.listPendingApprovals)
		approvals.POST("/:logID/resolve", h.resolveApproval)
	}

	group.GET("/action-logs", h.listActionLogs)

	collectors := group.Group("/collectors/:collectorID")
	{
		collectors.GET("/limits", h.getLimits)
		collectors.PUT("/limits", h.updateLimits)
		collectors.GET("/usage", h.getUsage)
	}
}
