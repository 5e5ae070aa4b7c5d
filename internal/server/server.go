package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Server struct {
	Engine *gin.Engine
	Addr   string
	health HealthChecker
}

// HealthChecker is an interface for components that can report their health status.
// *sql.DB satisfies it.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// New creates the HTTP server. health may be nil when the store has no
// remote dependency (the in-memory store).
func New(addr string, health HealthChecker, mode string) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	s := &Server{
		Engine: r,
		Addr:   addr,
		health: health,
	}

	r.GET("/health", s.healthHandler)

	return s
}

// requestLogger logs one line per request through slog instead of gin's
// default writer.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("[HTTP] Request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "memory",
		})
		return
	}

	if err := s.health.PingContext(ctx); err != nil {
		slog.Error("[HTTP] Health check failed: database unreachable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("[HTTP] Starting server", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("[HTTP] Stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[HTTP] Server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
