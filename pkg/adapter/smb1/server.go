package smb1

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oxbowlabs/smb1d/internal/logger"
	"github.com/oxbowlabs/smb1d/internal/metrics"
	"github.com/oxbowlabs/smb1d/internal/smb1/notify"
	"github.com/oxbowlabs/smb1d/internal/smb1/registry"
	"github.com/oxbowlabs/smb1d/internal/smb1/rpc"
	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
)

// Server owns the server-wide registries (spec §3's process-lifetime
// login/session/tree tables) and the TCP listener they are shared across,
// mirroring dittofs's Adapter+BaseAdapter split but collapsed into one
// type since this server has no sibling protocol to share accept-loop
// code with.
type Server struct {
	config   Config
	provider spi.Provider
	metrics  metrics.Recorder

	logins   *registry.LoginRegistry
	sessions *registry.SessionRegistry
	trees    *registry.TreeRegistry
	notify   *notify.Engine
	pipes    *rpc.PipeManager

	listener        net.Listener
	listenerMu      sync.RWMutex
	connSemaphore   chan struct{}
	activeConns     sync.WaitGroup
	connCount       atomic.Int32
	nextConnID      atomic.Uint64
	openConnections sync.Map // net.Conn -> struct{}, for forced close past ShutdownTimeout

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// New constructs a Server around the given TCP config, storage provider,
// and the share table shares() reports to NetShareEnumAll.
func New(config Config, provider spi.Provider, shares func() []rpc.ShareInfo1) *Server {
	config.applyDefaults()

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}

	return &Server{
		config:        config,
		provider:      provider,
		metrics:       metrics.Disabled,
		logins:        registry.NewLoginRegistry(),
		sessions:      registry.NewSessionRegistry(),
		trees:         registry.NewTreeRegistry(),
		notify:        notify.NewEngine(),
		pipes:         rpc.NewPipeManager(shares),
		connSemaphore: connSemaphore,
		shutdown:      make(chan struct{}),
	}
}

// SetMetrics installs a Prometheus recorder; call before Serve.
func (s *Server) SetMetrics(m metrics.Recorder) { s.metrics = m }

// Serve runs the accept loop until ctx is cancelled or Stop is called,
// then waits (up to config.ShutdownTimeout) for in-flight connections to
// finish before returning.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("smb1: listen on %s: %w", addr, err)
	}

	s.listenerMu.Lock()
	s.listener = ln
	s.listenerMu.Unlock()

	logger.Info("smb1 server listening", "address", addr)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.drain()
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			select {
			case <-s.shutdown:
				return s.drain()
			default:
				logger.Warn("smb1: accept error", "error", err)
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}

		s.metrics.ConnectionAccepted()
		s.connCount.Add(1)
		s.metrics.ActiveConnections(int(s.connCount.Load()))

		s.openConnections.Store(conn, struct{}{})
		c := newConnection(s, conn)
		s.activeConns.Add(1)
		go func() {
			defer s.activeConns.Done()
			defer func() {
				s.openConnections.Delete(conn)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
				s.connCount.Add(-1)
				s.metrics.ActiveConnections(int(s.connCount.Load()))
				s.metrics.ConnectionClosed()
			}()
			c.Serve(ctx)
		}()
	}
}

// Stop initiates graceful shutdown: the listener is closed so no new
// connections are accepted, but in-flight connections are left to drain
// via the context cancellation the caller also controls.
func (s *Server) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.listenerMu.RLock()
		ln := s.listener
		s.listenerMu.RUnlock()
		if ln != nil {
			_ = ln.Close()
		}
	})
}

// drain waits for in-flight connections to finish, force-closing any that
// are still open after config.ShutdownTimeout, mirroring dittofs's
// BaseAdapter.gracefulShutdown.
func (s *Server) drain() error {
	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(s.config.ShutdownTimeout):
		logger.Warn("smb1: shutdown timeout exceeded, force-closing remaining connections")
		s.openConnections.Range(func(key, _ any) bool {
			_ = key.(net.Conn).Close()
			return true
		})
		<-done
		return nil
	}
}
