package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"bess-dispatch/internal/logger"
)

// Logger logs one line per request. 4xx responses are logged as warnings
// and 5xx as errors.
func Logger(log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NopLogger{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		format := "%s %s %d %s %dB"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond), c.Writer.Size()}
		switch {
		case status >= 500:
			log.Errorf(format, args...)
		case status >= 400:
			log.Warnf(format, args...)
		default:
			log.Infof(format, args...)
		}
	}
}
