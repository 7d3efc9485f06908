package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"vatfiler/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:8000".
	Addr string
	// Handler serves every route.
	Handler http.Handler
	// ShutdownTimeout defaults to DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
	// NotifySystemd sends READY and STOPPING to systemd when the process
	// runs under a notify unit. It is a no-op elsewhere.
	NotifySystemd bool
}

// Server is the local HTTP listener.
type Server struct {
	opts       Options
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server. Nothing listens until Run is called.
func New(opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Server{
		opts: opts,
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           logRequests(opts.Handler),
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
	}
}

// Addr returns the bound address once Run has started listening, or the
// configured address before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Listen binds the listen address. Run calls it when needed; calling it
// first lets callers learn the port before serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logging.Info("Server", "Listening on http://%s", ln.Addr())
	s.notify(daemon.SdNotifyReady)

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.notify(daemon.SdNotifyStopping)
	logging.Info("Server", "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err, ok := <-errCh; ok && err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	logging.Info("Server", "Stopped")
	return nil
}

func (s *Server) notify(state string) {
	if !s.opts.NotifySystemd {
		return
	}
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Server", "systemd notification failed: %v", err)
		return
	}
	if sent {
		logging.Debug("Server", "Sent %q to systemd", state)
	}
}
