package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"freelancehub/internal/handler"
	"freelancehub/pkg/metrics"
	"freelancehub/pkg/mq"
	"freelancehub/pkg/trace"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	sessionHandler *handler.SessionHandler,
	statsHandler *handler.StatsHandler,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *Router {
	r := gin.Default()
	r.Use(traceMiddleware())
	r.Use(metricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	projects := r.Group("/projects/:id")
	{
		projects.POST("/sessions", sessionHandler.StartSession)
		projects.POST("/sessions/resume", sessionHandler.ResumeSession)
		projects.POST("/sessions/:sessionID/stop", sessionHandler.StopSession)
		projects.PATCH("/sessions/:sessionID", sessionHandler.UpdateSession)
		projects.DELETE("/sessions/:sessionID", sessionHandler.DeleteSession)

		projects.GET("/stats", statsHandler.GetProjectStats)
		projects.GET("/billable", statsHandler.GetBillableAmount)
		projects.GET("/period-rates", statsHandler.GetPeriodRates)
	}

	return &Router{Engine: r}
}

// traceMiddleware propagates the caller's trace ID, minting one when
// absent, so downstream logs and MQ publishes correlate.
func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName())
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)
		c.Next()
	}
}

// metricsMiddleware records request latency per route template, so
// /projects/7/stats and /projects/8/stats share one series.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
