package observability

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DebugRouter builds the optional operator-facing HTTP surface. It is
// only served when an address is configured; clients of the kernel
// protocol never see it.
func DebugRouter(kernelID string, logger zerolog.Logger) *gin.Engine {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	startedAt := time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(startedAt).String(),
			"kernel": kernelID,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// ServeDebug runs the debug surface until the listener fails.
func ServeDebug(addr, kernelID string, logger zerolog.Logger) {
	r := DebugRouter(kernelID, logger)
	if err := r.Run(addr); err != nil {
		logger.Error().Str("addr", addr).Err(err).Msg("debug server stopped")
	}
}

// RequestLogger logs one line per debug-surface request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	}
}
