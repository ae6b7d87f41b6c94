package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/whatfools/internal/config"
)

// SessionHandler runs the game for a single connected client.
// Each session is independent; handlers must not share run state.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn, logger *zap.Logger) error
}

// Acceptor listens for Telnet connections on a TCP port and dispatches
// each connection to a SessionHandler on its own goroutine.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	listener net.Listener
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	active   atomic.Int32
	served   atomic.Int64
}

// NewAcceptor creates a Telnet acceptor with the given configuration.
//
// Precondition: cfg must have a valid port; handler and logger must be non-nil.
// Postcondition: Returns an Acceptor ready to be started with ListenAndServe.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	if handler == nil || logger == nil {
		panic("telnet: NewAcceptor precondition violated: handler and logger must be non-nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ListenAndServe starts the TCP listener and accepts connections until Stop is called.
// This method blocks until the acceptor is stopped.
//
// Precondition: The acceptor must not already be running.
// Postcondition: The listener is closed when this method returns.
func (a *Acceptor) ListenAndServe() error {
	start := time.Now()

	listener, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		listener.Close()
		return errors.New("telnet: acceptor already running")
	}
	a.listener = listener
	a.running = true
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)

	for {
		raw, err := listener.Accept()
		if err != nil {
			if a.ctx.Err() != nil {
				return nil
			}
			a.logger.Error("accepting connection", zap.Error(err))
			continue
		}
		a.wg.Add(1)
		go a.serve(raw)
	}
}

// serve runs one session with its own session id and context.
func (a *Acceptor) serve(raw net.Conn) {
	defer a.wg.Done()
	a.active.Add(1)
	defer a.active.Add(-1)
	a.served.Add(1)

	start := time.Now()
	logger := a.logger.With(
		zap.String("session_id", uuid.NewString()),
		zap.String("remote_addr", raw.RemoteAddr().String()),
	)
	logger.Info("client connected")

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	defer conn.Close()

	if err := conn.Negotiate(); err != nil {
		logger.Error("telnet negotiation failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	if err := a.handler.HandleSession(ctx, conn, logger); err != nil {
		logger.Info("session ended",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return
	}
	logger.Info("session ended cleanly", zap.Duration("duration", time.Since(start)))
}

// Stop closes the listener, cancels every session and waits for them to finish.
//
// Postcondition: All connections are closed and goroutines have exited.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	a.running = false

	a.cancel()
	if a.listener != nil {
		a.listener.Close()
	}
	a.wg.Wait()

	a.logger.Info("telnet acceptor stopped", zap.Int64("sessions_served", a.served.Load()))
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return ""
}

// IsRunning returns whether the acceptor is currently accepting connections.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// ActiveSessions returns the number of sessions currently running.
func (a *Acceptor) ActiveSessions() int {
	return int(a.active.Load())
}
