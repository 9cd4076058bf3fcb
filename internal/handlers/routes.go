package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"item-manager/internal/config"
	"item-manager/internal/dispatch"
	"item-manager/internal/middleware"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Dispatcher *dispatch.Dispatcher
	Logger     *logrus.Logger
	RateLimit  config.RateLimitConfig
	// MaxBodySize defaults to middleware.DefaultMaxBodySize
	MaxBodySize int64
}

// NewRouter builds a gin engine with middleware and routes
func NewRouter(cfg *RouterConfig) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, cfg)
	SetupRoutes(router, cfg)
	return router
}

// SetupRoutes configures all routes
func SetupRoutes(router *gin.Engine, cfg *RouterConfig) {
	dispatchHandler := NewDispatchHandler(cfg.Dispatcher)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/health", Health)

	// The API Gateway resource name and the bare root both reach the dispatcher
	router.POST("/DynamoDBManager", dispatchHandler.Dispatch)
	router.POST("/", dispatchHandler.Dispatch)
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, cfg *RouterConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	maxBodySize := cfg.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = middleware.DefaultMaxBodySize
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.ErrorHandler(logger))

	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst > 0 {
		router.Use(middleware.RateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger))
	}

	router.Use(middleware.RequestSizeLimit(maxBodySize))
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   "item-manager",
		Version:   Version,
		Mode:      config.GetDeploymentMode(),
		Timestamp: time.Now().UTC(),
	})
}
