package server

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook runs after the listener has stopped
type ShutdownHook func(ctx context.Context) error

// OnShutdown registers a hook. Hooks run in registration order and a failing
// hook does not stop the others.
func (s *Server) OnShutdown(hook ShutdownHook) {
	s.hooks = append(s.hooks, hook)
}

// Run serves until ctx is done and then shuts down gracefully. It returns the
// serve error if the listener fails first.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", s.Addr()))
		errCh <- s.serve()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s.logger.Info("shutting down", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var shutdownErr error
	if err := s.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		s.logger.Error("server shutdown failed", zap.Error(err))
	}
	<-errCh

	for i, hook := range s.hooks {
		if err := hook(shutdownCtx); err != nil {
			s.logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
		}
	}

	s.logger.Info("server stopped")
	return shutdownErr
}
