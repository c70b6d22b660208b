package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dtroode/noteboard/internal/model"
)

const readHeaderTimeout = 10 * time.Second

// HTTPServer wraps an HTTP server with address and lifecycle methods.
// Event streams stay open as long as a page is, so no write timeout is set.
type HTTPServer struct {
	server *http.Server
	addr   string
	cancel context.CancelFunc
}

// NewHTTPServer creates an HTTPServer serving handler on addr.
func NewHTTPServer(handler http.Handler, addr string) *HTTPServer {
	base, cancel := context.WithCancel(context.Background())
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			BaseContext:       func(net.Listener) context.Context { return base },
		},
		addr:   addr,
		cancel: cancel,
	}
}

// Start starts serving on the configured address using the provided security layer.
// It returns nil once the server was stopped.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	err = s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully stops the server. Request contexts are cancelled first so
// that open event streams end and their boards stop.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.server.Close()
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Address returns the configured listen address.
func (s *HTTPServer) Address() string {
	return s.addr
}
