package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-service/internal/application/service"
	"github.com/khoahotran/profile-service/pkg/apperror"
	"github.com/khoahotran/profile-service/pkg/logger"
)

const (
	GinContextKeyRequestID = "requestID"
	HeaderRequestID        = "X-Request-ID"
)

// RequestIDMiddleware reuses the caller's X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(GinContextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

func GetRequestIDFromGinContext(c *gin.Context) string {
	return c.GetString(GinContextKeyRequestID)
}

func RequestLoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("HTTP request",
			zap.String("request_id", GetRequestIDFromGinContext(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// ErrorMiddleware renders the last error pushed with c.Error as
// {"detail": "..."}.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		status := apperror.ToHTTPStatus(appErr)
		fields := []zap.Field{
			zap.String("request_id", GetRequestIDFromGinContext(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
		}

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", appErr, fields...)
		} else {
			log.Warn("Request rejected", append(fields, zap.String("error", appErr.Error()))...)
		}

		c.JSON(status, appErr.ToJSON())
	}
}

func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic recovered", fmt.Errorf("%v", recovered),
			zap.String("request_id", GetRequestIDFromGinContext(c)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apperror.NewInternal("panic", nil).ToJSON())
	})
}

// RateLimitMiddleware limits requests per client IP. Limiter failures are
// logged and the request is let through.
func RateLimitMiddleware(limiter service.RateLimiter, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		decision, err := limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			log.Warn("Rate limit check failed", zap.String("client_ip", clientIP), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			c.Error(apperror.NewTooManyRequests(fmt.Sprintf("client %s exceeded %d requests", clientIP, decision.Limit)))
			c.Abort()
			return
		}

		c.Next()
	}
}
