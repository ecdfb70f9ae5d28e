package handler

import (
	"github.com/SergeiKhy/shortlink/internal/middleware"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	rateLimiter *middleware.RateLimiter,
	authMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	linkHandler := NewLinkHandler(linkService, logger)

	// Создание ссылок — только с токеном авторизации
	router.POST("/generate", authMiddleware, linkHandler.CreateLink)

	// Публичные пути: редирект и статистика по секретному токену
	router.GET("/:key", linkHandler.Redirect)
	router.GET("/:key/stats", linkHandler.GetStats)

	router.GET("/api/v1/health", HealthCheck)

	return router
}
