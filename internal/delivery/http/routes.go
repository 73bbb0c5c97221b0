package http

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skinlens/backend/config"
	"github.com/skinlens/backend/internal/pkg/logger"
	"github.com/skinlens/backend/internal/validation"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.UseJSONFieldNames(v)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		analyses := v1.Group("/analyses")
		{
			analyses.POST("", handler.AnalyzeProduct)
			analyses.GET("", handler.ListAnalyses)
			analyses.POST("/batch", handler.AnalyzeBatch)
			analyses.POST("/barcode", handler.AnalyzeBarcode)
			analyses.GET("/:id", handler.GetAnalysis)
			analyses.PUT("/:id/favorite", handler.SetFavorite)
		}

		recommendations := v1.Group("/recommendations")
		{
			recommendations.POST("", handler.Recommend)
			recommendations.POST("/alternatives", handler.Alternatives)
			recommendations.POST("/saved", handler.SaveRecommendation)
			recommendations.GET("/saved", handler.ListSavedRecommendations)
		}

		knowledge := v1.Group("/knowledge")
		{
			knowledge.POST("/reload", handler.ReloadKnowledge)
		}
	}

	return router
}
