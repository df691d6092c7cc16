package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/Suhaibinator/SServ/pkg/common"
	"go.uber.org/zap"
)

// Addr describes the address a server is bound to.
type Addr struct {
	Address string // IP address, e.g. "::" or "127.0.0.1"
	Family  string // "IPv4" or "IPv6"
	Port    int
}

// ErrorHandler receives transport errors: bind failures and errors returned
// by the accept loop.
type ErrorHandler func(err error)

// lifecycle is implemented by handlers that close registration while served,
// such as *router.Router.
type lifecycle interface {
	Freeze()
	Shutdown(ctx context.Context) error
}

// Server binds a handler to a TCP port.
// Safe for concurrent use.
type Server struct {
	mu      sync.Mutex
	handler http.Handler
	config  Config
	logger  *zap.Logger
	server  *http.Server
	done    chan struct{} // closed when the accept loop returns
	onError ErrorHandler
	boundTo Addr
	listen  func(network, address string) (net.Listener, error)
}

// New creates a Server for handler. Nothing is bound until Listen.
func New(handler http.Handler, config Config) *Server {
	config = config.withDefaults()
	return &Server{
		handler: handler,
		config:  config,
		logger:  config.Logger,
		listen:  net.Listen,
	}
}

// OnError registers the transport error handler.
func (s *Server) OnError(h ErrorHandler) error {
	if h == nil {
		return &common.ConfigError{Op: "on_error", Err: ErrNilErrorHandler}
	}
	s.mu.Lock()
	s.onError = h
	s.mu.Unlock()
	return nil
}

// Listen binds the server to port and starts serving in the background.
// An empty port means DefaultPort and "0" picks a free port. ready, when not
// nil, is called with the bound address before the first request is accepted.
// Bind failures are reported to the error handler and returned.
func (s *Server) Listen(port string, ready func(Addr)) error {
	p, err := parsePort(port)
	if err != nil {
		return &common.ConfigError{Op: "listen", Err: err}
	}

	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return ErrAlreadyListening
	}

	ln, err := s.listen("tcp", net.JoinHostPort(s.config.Host, strconv.Itoa(p)))
	if err != nil {
		s.mu.Unlock()
		s.transportError(err)
		return err
	}

	if lc, ok := s.handler.(lifecycle); ok {
		lc.Freeze()
	}

	srv := &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger),
	}
	done := make(chan struct{})
	addr := addrOf(ln.Addr())

	s.server = srv
	s.done = done
	s.boundTo = addr
	s.mu.Unlock()

	s.logger.Info("Listening",
		zap.String("address", addr.Address),
		zap.Int("port", addr.Port),
		zap.String("family", addr.Family),
	)

	if ready != nil {
		ready(addr)
	}

	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.transportError(err)
		}
	}()

	return nil
}

// Addr returns the bound address and whether the server is listening.
func (s *Server) Addr() (Addr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundTo, s.server != nil
}

// Close drains in-flight requests and stops the server. Closing a server that
// is not listening is a no-op. The server may Listen again afterwards.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.server, s.done
	s.server = nil
	s.boundTo = Addr{}
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("Shutting down server")

	var drainErr error
	if lc, ok := s.handler.(lifecycle); ok {
		drainErr = lc.Shutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown error", zap.Error(err))
		return errors.Join(drainErr, err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(drainErr, ctx.Err())
	}

	if drainErr != nil {
		s.logger.Error("Server shutdown error", zap.Error(drainErr))
		return drainErr
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// transportError delegates err to the registered handler. Without one the
// error is fatal.
func (s *Server) transportError(err error) {
	s.mu.Lock()
	h := s.onError
	s.mu.Unlock()

	if h != nil {
		h(err)
		return
	}
	s.logger.Fatal("Unhandled server error: "+err.Error(), zap.Error(err))
}

// parsePort converts the Listen argument to a port number.
func parsePort(port string) (int, error) {
	if port == "" {
		return DefaultPort, nil
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}
	return p, nil
}

// addrOf describes a listener address.
func addrOf(a net.Addr) Addr {
	tcp, ok := a.(*net.TCPAddr)
	if !ok {
		return Addr{Address: a.String(), Family: a.Network()}
	}
	family := "IPv6"
	if tcp.IP.To4() != nil {
		family = "IPv4"
	}
	return Addr{Address: tcp.IP.String(), Family: family, Port: tcp.Port}
}
