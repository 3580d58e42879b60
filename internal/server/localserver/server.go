package localserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// Server serves an HTTP handler over a Unix domain socket.
type Server struct {
	path       string
	httpServer *http.Server
}

// New creates a local server for the given socket path.
func New(socketPath string, handler http.Handler) *Server {
	return &Server{
		path: socketPath,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

// ListenAndServe creates the socket and serves until Shutdown. A stale
// socket file from an unclean exit is removed first.
func (s *Server) ListenAndServe() error {
	if err := s.removeStaleSocket(); err != nil {
		return err
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("localserver: listen on %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("localserver: chmod %s: %w", s.path, err)
	}

	return s.httpServer.Serve(listener)
}

// Shutdown gracefully shuts down the server and removes the socket
// file.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

// removeStaleSocket deletes a leftover socket file nobody is listening
// on. A live listener makes ListenAndServe fail instead of stealing
// the socket.
func (s *Server) removeStaleSocket() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: stat %s: %w", s.path, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", s.path)
	}

	conn, err := net.DialTimeout("unix", s.path, time.Second)
	if err == nil {
		conn.Close()
		return fmt.Errorf("localserver: %s is already in use", s.path)
	}
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("localserver: remove stale socket %s: %w", s.path, err)
	}
	return nil
}
