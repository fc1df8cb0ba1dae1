package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/pesoflow/lending_backend/internal/middleware"
)

// mustPrincipal extracts the authenticated principal or aborts with 401.
func mustPrincipal(c *gin.Context) (domain.Principal, bool) {
	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return domain.Principal{}, false
	}
	return principal, true
}

// respondError translates service errors into HTTP responses. The cash
// custody errors each get a distinct status and message so mobile clients
// can branch on them without string matching beyond the error field.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrNotAuthorized):
		logger.Warn("Authorization failure", slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFloat):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicateFloat),
		errors.Is(err, apperrors.ErrDayAlreadyClosed),
		errors.Is(err, apperrors.ErrUnconfirmedFloat),
		errors.Is(err, apperrors.ErrHandoverPending),
		errors.Is(err, apperrors.ErrStaleBalance),
		errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 500 {
			logger.Warn("Request failed", slog.String("error", err.Error()))
			c.JSON(appErr.Code, gin.H{"error": appErr.Message})
			return
		}
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
