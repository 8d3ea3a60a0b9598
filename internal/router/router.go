package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "medbrief/docs"
	"medbrief/internal/config"
	"medbrief/internal/handler"
	"medbrief/internal/middleware"
	"medbrief/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	tokenSvc service.TokenService,
	summaryH *handler.SummaryHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxFileBytes()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Legacy upload route kept for existing clients
	r.POST("/api/upload/", summaryH.Create)

	v1 := r.Group("/api/v1")

	// Summarization is public
	v1.POST("/summaries", summaryH.Create)

	// History routes require a valid JWT when auth is enabled
	history := v1.Group("/summaries")
	if cfg.Auth.Enabled {
		history.Use(middleware.AuthMiddleware(tokenSvc))
	}
	history.GET("", summaryH.List)
	history.GET("/:id", summaryH.GetByID)
	history.GET("/:id/labs.xlsx", summaryH.ExportLabs)

	return r
}
