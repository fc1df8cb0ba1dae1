package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/pesoflow/lending_backend/internal/middleware"
)

// handoverHandler handles HTTP requests for end-of-day reconciliation.
type handoverHandler struct {
	handoverService portssvc.HandoverSvcFacade
}

func newHandoverHandler(handoverService portssvc.HandoverSvcFacade) *handoverHandler {
	return &handoverHandler{handoverService: handoverService}
}

// initiateHandover is the collector's end-of-day cash count submission.
func (h *handoverHandler) initiateHandover(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req dto.InitiateHandoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for initiateHandover", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	handover, err := h.handoverService.InitiateHandover(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCashFloatResponse(handover))
}

// confirmHandover is the cashier's accept/reject decision.
func (h *handoverHandler) confirmHandover(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	handoverID := c.Param("handoverID")

	var req dto.ConfirmHandoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for confirmHandover", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	handover, err := h.handoverService.ConfirmHandover(c.Request.Context(), principal, handoverID, req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCashFloatResponse(handover))
}

// listPendingHandovers is the cashier's reconciliation queue.
func (h *handoverHandler) listPendingHandovers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	handovers, err := h.handoverService.ListPendingHandovers(c.Request.Context(), principal)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"handovers": dto.ToCashFloatResponses(handovers)})
}

// registerHandoverRoutes registers handover routes.
func registerHandoverRoutes(group *gin.RouterGroup, handoverService portssvc.HandoverSvcFacade) {
	h := newHandoverHandler(handoverService)

	handovers := group.Group("/handovers")
	{
		handovers.POST("", h.initiateHandover)
		handovers.GET("/pending", h.listPendingHandovers)
		handovers.POST("/:handoverID/confirm", h.confirmHandover)
	}
}
