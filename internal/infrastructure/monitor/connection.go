package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Remote is the subset of a document store the monitor pings.
type Remote interface {
	Ping(ctx context.Context) error
	Backend() string
}

// Outbox reports how many writes wait for the remote store.
type Outbox interface {
	Size() (int, error)
}

type Monitor struct {
	remote Remote
	outbox Outbox

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New builds a monitor. A nil remote is reported as permanently offline.
func New(remote Remote, outbox Outbox, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		remote:   remote,
		outbox:   outbox,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	m.refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Remote
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	cacheOK, pending := m.checkOutbox()
	status := Status{
		Remote:      m.checkRemote(),
		LocalCache:  cacheOK,
		PendingSync: pending,
		LastCheck:   time.Now(),
	}
	if m.remote != nil {
		status.RemoteBackend = m.remote.Backend()
	}

	m.mu.Lock()
	wasOnline := m.status.Remote
	m.status = status
	m.mu.Unlock()

	if wasOnline && !status.Remote {
		m.logger.Warn("remote store went offline", zap.String("backend", status.RemoteBackend))
	} else if !wasOnline && status.Remote {
		m.logger.Info("remote store online", zap.String("backend", status.RemoteBackend))
	}
}

func (m *Monitor) checkRemote() bool {
	if m.remote == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.remote.Ping(ctx); err != nil {
		m.logger.Debug("remote ping failed", zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.outbox == nil {
		return false, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
