package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// Logger writes one access line per API request. Health probes are skipped.
// Request and response bodies are never logged: they carry personal data in plaintext.
// Server errors are logged at warn so a degraded store stands out.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/health/") {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		l := log.WithContext(c.Request.Context())
		write := l.Infow
		if status >= 500 {
			write = l.Warnw
		}
		write("api request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
