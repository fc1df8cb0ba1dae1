package handlers

import (
	"github.com/gin-gonic/gin"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/middleware"
	"github.com/pesoflow/lending_backend/pkg/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// using the service interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the
// per-workflow route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	cash := v1.Group("/cash")
	registerFloatRoutes(cash, services.Float)
	registerHandoverRoutes(cash, services.Handover)
	registerLedgerRoutes(cash, services.Ledger)

	registerApprovalRoutes(v1, services.Authority)
}
