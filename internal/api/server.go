package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// Server runs the HTTP listener until its context is cancelled.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          logger.Logger
}

func NewServer(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Address,
			Handler:      handler,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		},
		shutdownTimeout: config.GetDuration(cfg.ShutdownTimeout),
		logger:          log.WithFields(map[string]interface{}{"component": "http-server"}),
	}
}

// Run blocks until ctx is cancelled or the listener fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": s.srv.Addr})
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server", nil)
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}
