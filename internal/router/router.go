package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"declbot/internal/config"
	"declbot/internal/handler"
	"declbot/internal/middleware"

	_ "declbot/docs"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log *zap.Logger,
	gateway config.GatewayConfig,
	chatH *handler.ChatHandler,
	catalogH *handler.CatalogHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Gateway routes - require a signed gateway token
	v1 := r.Group("/api/v1")
	v1.Use(middleware.GatewayAuth(gateway))

	chat := v1.Group("/chat")
	chat.POST("/messages", chatH.Message)
	chat.POST("/documents", chatH.Document)

	v1.GET("/catalog", catalogH.List)

	return r
}
