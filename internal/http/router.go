package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	assessH *AssessmentHandler,
	runAuth gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y metricas.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), metricsMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	assessments := r.Group("/assessments", jsonContentTypeMiddleware())
	assessments.POST("", assessH.Start)

	run := assessments.Group("/:id", runAuth)
	run.GET("", assessH.Get)
	run.DELETE("", assessH.Abandon)
	run.POST("/gender", assessH.SelectGender)
	run.POST("/bracket", assessH.SelectBracket)
	run.POST("/answers", assessH.Answer)
	run.POST("/next", assessH.Next)
	run.POST("/prev", assessH.Prev)
	run.POST("/finalize", assessH.Finalize)
	run.GET("/result", assessH.Result)
	run.GET("/export", assessH.Export)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
