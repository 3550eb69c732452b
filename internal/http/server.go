package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

type Server struct {
	Engine          *gin.Engine
	ShutdownTimeout time.Duration
	// OnShutdown hooks run when draining starts, e.g. closing SSE streams.
	OnShutdown      []func()
	log             *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		Engine:          NewRouter(cfg),
		ShutdownTimeout: defaultShutdownTimeout,
		log:             log.With("component", "HTTPServer"),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
// No write timeout is set: SSE streams stay open for the session.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	for _, fn := range s.OnShutdown {
		srv.RegisterOnShutdown(fn)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
