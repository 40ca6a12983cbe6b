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

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

// RunFunc is a long-running component. It returns when ctx is cancelled or
// when it fails.
type RunFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

// Manager starts long-running components, waits for a termination signal
// or the first component failure, then runs shutdown hooks in reverse
// registration order.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []hook

	wg     sync.WaitGroup
	errCh  chan error
	sigCh  chan os.Signal
	notify func(chan<- os.Signal, ...os.Signal)
}

// New creates a lifecycle manager with the desired shutdown timeout.
func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
		errCh:   make(chan error, 1),
		sigCh:   make(chan os.Signal, 1),
		notify:  signal.Notify,
	}
}

// Register adds a shutdown hook.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// Go runs fn in the background. A non-nil error other than context
// cancellation triggers shutdown.
func (m *Manager) Go(ctx context.Context, name string, fn RunFunc) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("component failed", zap.String("component", name), zap.Error(err))
			select {
			case m.errCh <- err:
			default:
			}
		}
	}()
}

// Wait blocks until ctx is done, a termination signal arrives or a
// component started with Go fails. It returns the component error, if any.
func (m *Manager) Wait(ctx context.Context) error {
	m.notify(m.sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(m.sigCh)

	select {
	case sig := <-m.sigCh:
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		return nil
	case err := <-m.errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown executes all registered hooks within the configured timeout,
// then waits for components started with Go.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := append([]hook(nil), m.hooks...)
	m.hooks = nil
	m.mu.Unlock()

	var result error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.fn(ctx); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", h.name))
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		result = errors.Join(result, ctx.Err())
	}
	return result
}
