package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parceldesk/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.PackageHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/packages", handler.List)
	r.POST("/packages", handler.Add)
	r.POST("/packages/:id/toggle", handler.Toggle)
	r.POST("/packages/:id/advance", handler.Advance)
	r.DELETE("/packages/:id", handler.Delete)
	r.POST("/refresh", handler.Refresh)
	r.GET("/stats", handler.Stats)
	r.GET("/notices", handler.Notices)
	r.GET("/products", handler.Products)
	r.GET("/products/history", handler.PriceHistory)
	r.GET("/export.csv", handler.ExportCSV)
	r.POST("/export/sheets", handler.ExportSheets)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
