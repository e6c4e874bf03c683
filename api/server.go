package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docdisco/config"
	"github.com/meghashyamc/docdisco/logger"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	router     *gin.Engine
	httpServer *http.Server
	deps       *Dependencies
	cfg        *config.Config
	logger     logger.Logger
}

// Run serves the HTTP API until ctx is done or the process is interrupted.
func Run(ctx context.Context, logger logger.Logger, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger,
	}

	var err error
	s.deps, err = NewDependencies(ctx, logger, cfg)
	if err != nil {
		return err
	}
	s.setupRouter()

	errC := make(chan error, 1)
	s.setupHTTPServer(errC)

	select {
	case err := <-errC:
		s.deps.Close()
		return err
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *server) setupRouter() {
	router := newRouter()

	router.Use(loggingMiddleware(s.logger))

	setupRoutes(router, s.logger, s.deps)

	s.router = router
}

func (s *server) setupHTTPServer(errC chan<- error) {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler: s.router.Handler(),
	}
	s.httpServer = httpServer
	go func() {
		s.logger.Info("listening", "addr", httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "err", err.Error())
			errC <- fmt.Errorf("listen: %w", err)
		}
	}()
}

func (s *server) shutdown() error {
	s.logger.Info("starting to shut down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if closeErr := s.deps.Close(); closeErr != nil {
		s.logger.Error("error closing databases", "err", closeErr.Error())
	}
	if err != nil {
		s.logger.Error("error shutting down http server", "err", err.Error())
		return err
	}
	s.logger.Info("shut down http server successfully")
	return nil
}
