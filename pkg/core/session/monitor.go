package session

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor polls the board's plain-text content and reports edits only after
// the user has paused. At most one notification is sent per edit burst, and
// it always carries the latest snapshot at send time.
type Monitor struct {
	config   MonitorConfig
	snapshot func() string
	notify   func(snapshot string)
	logger   *slog.Logger

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time

	mu          sync.Mutex
	lastContent string
	lastChange  time.Time
	pending     bool
}

// NewMonitor creates a canvas change monitor. snapshot extracts the current
// board text; notify receives the debounced update.
func NewMonitor(config MonitorConfig, snapshot func() string, notify func(string), logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		config:   config,
		snapshot: snapshot,
		notify:   notify,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins polling. Idempotent.
func (m *Monitor) Start() {
	if m.running.Swap(true) {
		return
	}
	m.done = make(chan struct{})
	m.wg.Add(1)
	go m.loop()
}

// Stop halts polling and discards any pending notification. Idempotent.
func (m *Monitor) Stop() {
	if !m.running.Swap(false) {
		return
	}
	close(m.done)
	m.wg.Wait()

	m.mu.Lock()
	m.pending = false
	m.lastContent = ""
	m.mu.Unlock()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.step(m.now())
		}
	}
}

// step runs one poll: record changes, and fire the pending notification once
// the debounce window has elapsed since the last observed change.
func (m *Monitor) step(now time.Time) {
	current := m.snapshot()

	m.mu.Lock()
	if current != "" && current != m.lastContent {
		m.lastContent = current
		m.lastChange = now
		m.pending = true
		m.mu.Unlock()
		m.logger.Debug("canvas changed, waiting for quiet period")
		return
	}

	if m.pending && now.Sub(m.lastChange) >= m.config.Debounce {
		m.pending = false
		content := m.lastContent
		m.mu.Unlock()
		m.notify(content)
		return
	}
	m.mu.Unlock()
}
