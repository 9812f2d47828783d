package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diogomassis/payments-core/internal/logger"
)

const checkTimeout = 4 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker is one dependency the monitor probes.
type Checker interface {
	GetName() string
	Ping(ctx context.Context) error
}

type pingChecker struct {
	name   string
	pinger Pinger
}

// NewPingChecker names a dependency that already knows how to ping itself,
// such as a ledger backend.
func NewPingChecker(name string, pinger Pinger) Checker {
	return &pingChecker{name: name, pinger: pinger}
}

func (c *pingChecker) GetName() string {
	return c.name
}

func (c *pingChecker) Ping(ctx context.Context) error {
	return c.pinger.Ping(ctx)
}

type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

type Monitor struct {
	checkers  []Checker
	interval  time.Duration
	log       zerolog.Logger
	now       func() time.Time
	cache     map[string]Status
	listeners []func(Status)
	mutex     sync.RWMutex
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

func NewMonitor(interval time.Duration, log zerolog.Logger, checkers ...Checker) *Monitor {
	return &Monitor{
		checkers: checkers,
		interval: interval,
		log:      logger.Component(log, "health"),
		now:      time.Now,
		cache:    make(map[string]Status),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// OnUpdate registers fn to receive every status the monitor records. Register
// listeners before Start.
func (m *Monitor) OnUpdate(fn func(Status)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Monitor) GetStatus(name string) (Status, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	status, found := m.cache[name]
	return status, found
}

// Snapshot returns the cached statuses sorted by name.
func (m *Monitor) Snapshot() []Status {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	statuses := make([]Status, 0, len(m.cache))
	for _, status := range m.cache {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// Healthy is true once every checker has been probed and the last probe of
// each succeeded.
func (m *Monitor) Healthy() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, c := range m.checkers {
		status, found := m.cache[c.GetName()]
		if !found || !status.Healthy {
			return false
		}
	}
	return true
}

func (m *Monitor) Start() {
	m.log.Info().Dur("interval", m.interval).Msg("Starting health monitor")
	ticker := time.NewTicker(m.interval)
	go func() {
		defer close(m.done)
		m.CheckAll(context.Background())
		for {
			select {
			case <-ticker.C:
				m.CheckAll(context.Background())
			case <-m.stopChan:
				ticker.Stop()
				m.log.Info().Msg("Health monitor stopped")
				return
			}
		}
	}()
}

// Stop ends the probe loop and waits for it to exit. Only call it after Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	<-m.done
}

// CheckAll probes every checker once and records the results.
func (m *Monitor) CheckAll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	for _, c := range m.checkers {
		status := Status{Name: c.GetName(), Healthy: true, CheckedAt: m.now().UTC()}
		if err := c.Ping(ctx); err != nil {
			m.log.Error().Err(err).Str("dependency", c.GetName()).Msg("Health check failed, marking as failing")
			status.Healthy = false
			status.Error = err.Error()
		}
		m.updateStatus(status)
	}
}

func (m *Monitor) updateStatus(status Status) {
	m.mutex.Lock()
	previous, seen := m.cache[status.Name]
	m.cache[status.Name] = status
	listeners := append([]func(Status){}, m.listeners...)
	m.mutex.Unlock()

	if !seen || previous.Healthy != status.Healthy {
		m.log.Info().Str("dependency", status.Name).Bool("healthy", status.Healthy).Msg("Dependency status changed")
	}
	for _, fn := range listeners {
		fn(status)
	}
}
