package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/pesoflow/lending_backend/internal/middleware"
)

// floatHandler handles HTTP requests for float issuance.
type floatHandler struct {
	floatService portssvc.FloatSvcFacade
}

func newFloatHandler(floatService portssvc.FloatSvcFacade) *floatHandler {
	return &floatHandler{floatService: floatService}
}

// issueFloat creates a pending float issuance for a collector.
func (h *floatHandler) issueFloat(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req dto.IssueFloatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for issueFloat", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	float, err := h.floatService.IssueFloat(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCashFloatResponse(float))
}

// confirmFloat is the collector's receipt acknowledgement.
func (h *floatHandler) confirmFloat(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	floatID := c.Param("floatID")

	var req dto.ConfirmFloatReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for confirmFloat", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	float, err := h.floatService.ConfirmFloatReceipt(c.Request.Context(), principal, floatID, req.Location.ToDomain())
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCashFloatResponse(float))
}

// listFloats returns paginated float history.
func (h *floatHandler) listFloats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var params dto.ListFloatsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	resp, err := h.floatService.ListFloatHistory(c.Request.Context(), principal, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listPendingFloats is the confirmation queue.
func (h *floatHandler) listPendingFloats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	floats, err := h.floatService.ListPendingIssuances(c.Request.Context(), principal)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"floats": dto.ToCashFloatResponses(floats)})
}

// registerFloatRoutes registers float issuance routes.
func registerFloatRoutes(group *gin.RouterGroup, floatService portssvc.FloatSvcFacade) {
	h := newFloatHandler(floatService)

	floats := group.Group("/floats")
	{
		floats.POST("", h.issueFloat)
		floats.GET("", h.listFloats)
		floats.GET("/pending", h.listPendingFloats)
		floats.POST("/:floatID/confirm", h.confirmFloat)
	}
}
