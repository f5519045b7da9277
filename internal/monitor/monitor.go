// Package monitor decides when the sync processor runs: on an
// offline-to-online edge, on a periodic background wake, or on an
// explicit user retry. Concurrent triggers coalesce into the drain
// already in flight.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradeos/fieldsync/internal/apperrors"
	"github.com/tradeos/fieldsync/internal/processor"
)

// DefaultInterval is the periodic wake cadence. The wake is
// opportunistic; platforms may suppress it in low-power states.
const DefaultInterval = 15 * time.Minute

// Drainer runs one queue drain pass.
type Drainer interface {
	Drain(ctx context.Context) (processor.Result, error)
}

// Monitor tracks connectivity and fans triggers into single drains.
type Monitor struct {
	drainer  Drainer
	interval time.Duration
	log      *logrus.Logger

	mu         sync.Mutex
	online     bool
	inFlight   bool
	running    bool
	lastDrain  time.Time
	lastResult processor.Result

	baseCtx context.Context
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a Monitor. The client assumes it is online until told
// otherwise. interval <= 0 selects DefaultInterval.
func New(d Drainer, interval time.Duration, log *logrus.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		drainer:  d,
		interval: interval,
		log:      log,
		online:   true,
		stopCh:   make(chan struct{}),
	}
}

// Online reports the last known connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity transition. The offline-to-online
// edge triggers a drain; repeated online reports do not.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	ctx := m.baseCtx
	m.mu.Unlock()

	if wasOnline == online {
		return
	}

	m.log.WithFields(logrus.Fields{
		"was_online": wasOnline,
		"is_online":  online,
	}).Info("connectivity changed")

	if online {
		if ctx == nil {
			ctx = context.Background()
		}
		m.TriggerSync(ctx)
	}
}

// Start launches the periodic wake loop.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.baseCtx = ctx
	m.mu.Unlock()

	m.wg.Add(1)
	go m.wakeLoop(ctx)

	m.log.Info("sync monitor started")
}

// Stop shuts the wake loop down and waits for it.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()

	m.log.Info("sync monitor stopped")
}

func (m *Monitor) wakeLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.TriggerSync(ctx)
		}
	}
}

// TriggerSync starts a drain unless one is already in flight, in
// which case the trigger coalesces and false is returned. This is the
// whole-queue guard that keeps at most one request per entity in
// flight.
func (m *Monitor) TriggerSync(ctx context.Context) bool {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		m.log.Debug("drain already in flight, trigger coalesced")
		return false
	}
	m.inFlight = true
	m.mu.Unlock()

	go func() {
		defer m.clearInFlight()
		m.runDrain(ctx)
	}()
	return true
}

// SyncNow runs a drain synchronously, for user-initiated retries that
// want the result. Returns an error if a drain is already in flight.
func (m *Monitor) SyncNow(ctx context.Context) (processor.Result, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return processor.Result{}, apperrors.New(apperrors.ErrInternal, "drain already in flight")
	}
	m.inFlight = true
	m.mu.Unlock()

	defer m.clearInFlight()
	return m.runDrain(ctx)
}

func (m *Monitor) clearInFlight() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}

func (m *Monitor) runDrain(ctx context.Context) (processor.Result, error) {
	result, err := m.drainer.Drain(ctx)
	if err != nil {
		m.log.WithError(err).Error("drain pass failed")
		return result, err
	}

	m.mu.Lock()
	m.lastDrain = time.Now()
	m.lastResult = result
	m.mu.Unlock()

	if result.Success > 0 || result.Failed > 0 {
		m.log.WithFields(logrus.Fields{
			"success": result.Success,
			"failed":  result.Failed,
		}).Info("drain pass completed")
	}
	return result, nil
}

// Snapshot is a point-in-time view of the monitor.
type Snapshot struct {
	Running    bool
	Online     bool
	InFlight   bool
	LastDrain  time.Time
	LastResult processor.Result
}

// Status returns the current monitor state.
func (m *Monitor) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Running:    m.running,
		Online:     m.online,
		InFlight:   m.inFlight,
		LastDrain:  m.lastDrain,
		LastResult: m.lastResult,
	}
}
