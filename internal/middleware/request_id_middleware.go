package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader — заголовок идентификатора запроса
const RequestIDHeader = "X-Request-ID"

// ContextLogger — ключ логгера запроса в контексте gin
const ContextLogger = "logger"

// RequestID присваивает запросу идентификатор (или берет из заголовка)
// и пишет строку access-лога с этим идентификатором
func RequestID(logger *zap.Logger) gin.HandlerFunc {
	base := logger.Named("HTTP")
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		reqLogger := base.With(zap.String("request_id", id))
		c.Set(ContextLogger, reqLogger)

		start := time.Now()
		c.Next()

		reqLogger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// LoggerFrom возвращает логгер запроса или fallback
func LoggerFrom(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(ContextLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return fallback
}
