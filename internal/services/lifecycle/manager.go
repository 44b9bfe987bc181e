package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// CloseFunc releases one resource held by a command (pool, manifest store).
type CloseFunc func(ctx context.Context) error

type closer struct {
	name string
	fn   CloseFunc
}

// Manager cancels the command context on SIGINT/SIGTERM and closes registered resources in
// reverse order when the command finishes.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	closers []closer
	closed  bool
}

// New creates a lifecycle manager. A non-positive timeout falls back to 15s.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a resource to close. Closers run in reverse registration order.
func (m *Manager) Register(name string, fn CloseFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closers = append(m.closers, closer{name: name, fn: fn})
}

// Shutdown runs every closer once within the configured timeout. Later calls are no-ops.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var result error
	for i := len(m.closers) - 1; i >= 0; i-- {
		c := m.closers[i]
		if err := c.fn(ctx); err != nil {
			m.logger.Error("close failed", zap.String("resource", c.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Debug("resource closed", zap.String("resource", c.name))
	}
	return result
}

// Listen returns a context cancelled on the first SIGINT or SIGTERM. The returned stop
// function releases the signal handler.
func (m *Manager) Listen(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			m.logger.Warn("interrupted, abandoning run", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
