package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rituraj200000/googlemapscraper/api/handler"
	"github.com/Rituraj200000/googlemapscraper/api/middleware"
	"github.com/Rituraj200000/googlemapscraper/config"
)

// NewRouter creates a configured Gin engine serving run progress.
//
// Middleware chain:
//
//	Global:  Recovery
//	API:     Auth (if keys are configured) → RateLimit
//
// Health is outside auth so monitoring probes always work.
func NewRouter(cfg config.StatusConfig, tracker *handler.Tracker, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(tracker, startTime))

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.APIKeys))
	protected.Use(middleware.RateLimit(cfg.RequestsPerSecond, cfg.Burst))
	protected.GET("/progress", handler.Progress(tracker))

	return r
}

// Serve runs the status server on addr until ctx is done, then drains it.
func Serve(ctx context.Context, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("status server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("status server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("status server forced shutdown", "error", err)
		}
	}()
}
