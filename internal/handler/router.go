package handler

import (
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

// NewRouter собирает gin.Engine галереи.
// Middleware и метрики подключаются до роутов: gin копирует цепочку
// обработчиков в роут в момент его регистрации.
func NewRouter(h *GalleryHandler, metrics *ginprometheus.Prometheus, health gin.HandlerFunc, middlewares ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middlewares...)
	if metrics != nil {
		metrics.Use(router)
	}

	if health != nil {
		router.GET("/health", health)
		router.HEAD("/health", health)
	}
	h.RegisterRoutes(router)
	return router
}
