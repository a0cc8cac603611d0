package router

import (
	"github.com/gin-gonic/gin"

	"ledgerflow/internal/config"
	"ledgerflow/internal/handler"
	"ledgerflow/internal/middleware"
	"ledgerflow/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	importH *handler.ImportHandler,
	catalogH *handler.CatalogHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authH.Login)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	imports := protected.Group("/imports")
	imports.POST("", importH.Upload)
	imports.GET("", importH.List)
	imports.GET("/overview", importH.Overview)
	imports.GET("/:id", importH.Get)
	imports.GET("/:id/source-url", importH.SourceURL)
	imports.POST("/:id/approve", importH.Approve)
	imports.POST("/:id/reject", importH.Reject)
	// DELETE is the documented rejection route; the POST alias predates it.
	imports.DELETE("/:id", importH.Reject)
	imports.POST("/:id/retry", importH.Retry)
	imports.GET("/lines/:lineId/suggestions", importH.Suggestions)
	imports.PUT("/lines/:lineId/match", importH.ManualMatch)

	catalog := protected.Group("/catalog")
	catalog.GET("", catalogH.Search)

	return r
}
