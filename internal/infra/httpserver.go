package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer runs the API surface with sane timeouts and a graceful stop.
// Write timeouts stay well above the webhook client timeout so a dispatch
// request is never cut off mid outbound call.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the server from config. The handler is the fully
// assembled chi router.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
	}
}

// Start blocks serving requests until Shutdown is called or the listener
// fails. A shutdown-initiated close is reported as nil.
func (s *HTTPServer) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the context deadline. Detached
// callback reconciliation goroutines are not tracked here; they finish
// against context.WithoutCancel contexts on their own.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
