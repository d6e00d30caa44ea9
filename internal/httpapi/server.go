// Package httpapi serves the analysis engine over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/prpulse/internal/contract"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with logging and recovery middleware.
func NewRouter(cfg *contract.Config, logger *zap.SugaredLogger) *gin.Engine {
	return newRouter(&handler{baseCfg: cfg, logger: logger, clock: time.Now})
}

func newRouter(h *handler) *gin.Engine {
	r := gin.New()
	r.Use(Logger(h.logger), Recovery(h.logger))

	r.GET("/healthz", h.Healthz)
	v1 := r.Group("/v1")
	v1.POST("/analyze", h.Analyze)

	r.NoRoute(func(c *gin.Context) {
		errorResponse(c, http.StatusNotFound, CodeNotFound, "route not found")
	})
	return r
}

// Serve runs the HTTP API on cfg.Addr until ctx is cancelled.
func Serve(ctx context.Context, cfg *contract.Config) error {
	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		logger.Infow("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}
