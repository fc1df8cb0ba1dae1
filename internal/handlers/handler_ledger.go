package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/pesoflow/lending_backend/internal/middleware"
)

// ledgerHandler handles HTTP requests for cash movements and ledger reads.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

// toGuardedResponse converts a guard outcome to its API shape. Escalation
// is reported as 202 with the pending audit row; execution as 201.
func toGuardedResponse(result *portssvc.GuardedActionResult) (int, dto.GuardedActionResponse) {
	resp := dto.GuardedActionResponse{
		FlaggedForReview: result.FlaggedForReview,
	}
	if result.Transaction != nil {
		t := dto.ToCashTransactionResponse(result.Transaction)
		resp.Transaction = &t
	}
	if result.Balance != nil {
		b := dto.ToBalanceResponse(result.Balance)
		resp.Balance = &b
	}
	if result.Log != nil {
		l := dto.ToActionLogResponse(result.Log)
		resp.ApprovalLog = &l
	}
	if result.Executed {
		resp.Status = dto.GuardedExecuted
		return http.StatusCreated, resp
	}
	resp.Status = dto.GuardedPendingApproval
	return http.StatusAccepted, resp
}

// recordCollection records cash received from a borrower.
func (h *ledgerHandler) recordCollection(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req dto.RecordCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for recordCollection", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.ledgerService.RecordCollection(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	status, resp := toGuardedResponse(result)
	c.JSON(status, resp)
}

// recordDisbursement records cash paid out against a loan.
func (h *ledgerHandler) recordDisbursement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req dto.RecordDisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for recordDisbursement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.ledgerService.RecordDisbursement(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	status, resp := toGuardedResponse(result)
	c.JSON(status, resp)
}

// waivePenalty waives part of a penalty through the authority guard.
func (h *ledgerHandler) waivePenalty(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req dto.WaivePenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for waivePenalty", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.ledgerService.WaivePenalty(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	status, resp := toGuardedResponse(result)
	c.JSON(status, resp)
}

// getBalance returns one collector's daily cash position.
func (h *ledgerHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	collectorID := c.Param("collectorID")
	if collectorID == "" {
		collectorID = c.Query("collectorID")
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), principal, collectorID, date)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBalanceResponse(balance))
}

// getBalanceMonitor returns every collector's snapshot for the date.
func (h *ledgerHandler) getBalanceMonitor(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	balances, err := h.ledgerService.GetBalanceMonitor(c.Request.Context(), principal, date)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": dto.ToBalanceResponses(balances)})
}

// listTransactions returns paginated ledger history.
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), principal, params)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// registerLedgerRoutes registers cash movement and ledger read routes.
func registerLedgerRoutes(group *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	group.POST("/collections", h.recordCollection)
	group.POST("/disbursements", h.recordDisbursement)
	group.POST("/waivers", h.waivePenalty)
	group.GET("/balance", h.getBalance)
	group.GET("/balance/:collectorID", h.getBalance)
	group.GET("/balances", h.getBalanceMonitor)
	group.GET("/transactions", h.listTransactions)
}
