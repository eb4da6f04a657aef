// Package server exposes the panel session over an HTTP JSON API so a
// browser front-end can drive it.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"patchpanel/internal/logging"
	"patchpanel/internal/session"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8088"

const shutdownTimeout = 5 * time.Second

// Server serves the JSON API for one Session. Sync and build requests run
// in the background under the server's own lifetime, not the request's.
type Server struct {
	sess   *session.Session
	addr   string
	router *mux.Router

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Server and registers its routes.
func New(sess *session.Session, addr string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	bg, cancel := context.WithCancel(context.Background())
	s := &Server{
		sess:   sess,
		addr:   addr,
		router: mux.NewRouter(),
		bg:     bg,
		cancel: cancel,
	}
	s.routes()
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the router wrapped with recovery, CORS and access logging.
func (s *Server) Handler() http.Handler {
	log := logging.Get(logging.CategoryServer)

	var h http.Handler = s.router
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log}),
		handlers.PrintRecoveryStack(false),
	)(h)
	return handlers.CustomLoggingHandler(io.Discard, h, func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Debug("request",
			zap.String("method", p.Request.Method),
			zap.String("path", p.URL.Path),
			zap.Int("status", p.StatusCode),
			zap.Int("size", p.Size))
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// waits for background work.
func (s *Server) ListenAndServe(ctx context.Context) error {
	log := logging.Get(logging.CategoryServer)
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		s.Close()
		if ok {
			return fmt.Errorf("listen on %s: %w", s.addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	<-errChan
	log.Info("stopped")
	return err
}

// Close cancels background sync and build work and waits for it to end.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// background runs fn under the server lifetime.
func (s *Server) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.bg)
	}()
}

type recoveryLogger struct {
	log *zap.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("handler panic", zap.String("panic", fmt.Sprint(v...)))
}
