package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/middleware"
	"github.com/SscSPs/org_books/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Prometheus scrapes the default registry, which the journal metrics use.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {
	ipLimiter, err := middleware.NewIPLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}
	v1 := r.Group("/api/v1", middleware.CORS(cfg.CORSAllowedOrigins), middleware.RateLimit(ipLimiter))

	registerAccountRoutes(v1, services.Account)
	registerJournalRoutes(v1, services.Journal)
	return nil
}
