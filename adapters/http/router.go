package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/profile-service/internal/application/service"
	"github.com/khoahotran/profile-service/pkg/logger"
)

type RouterDeps struct {
	ProfileHandler *ProfileHandler
	Logger         logger.Logger
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter service.RateLimiter
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		RecoveryMiddleware(deps.Logger),
		RequestIDMiddleware(),
		RequestLoggerMiddleware(deps.Logger),
		ErrorMiddleware(deps.Logger),
	)

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

	profiles := router.Group("/profiles")
	if deps.RateLimiter != nil {
		profiles.Use(RateLimitMiddleware(deps.RateLimiter, deps.Logger))
	}
	{
		profiles.POST("/", deps.ProfileHandler.CreateProfile)
		profiles.GET("/:id", deps.ProfileHandler.GetProfile)
		profiles.PATCH("/:id", deps.ProfileHandler.UpdateProfile)
	}

	return router
}
