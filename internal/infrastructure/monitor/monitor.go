package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe checks one dependency and returns nil when it is healthy.
type Probe func(ctx context.Context) error

// Status is the last observed health of the gateway's dependencies.
type Status struct {
	Components map[string]bool `json:"components"`
	LastCheck  time.Time       `json:"last_check"`
}

// Monitor periodically runs dependency probes (session store, identity
// provider) and caches the result for the health endpoint.
type Monitor struct {
	probes   map[string]Probe
	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(probes map[string]Probe, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

// IsOnline reports whether every probed dependency was healthy at the last
// check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ok := range m.status.Components {
		if !ok {
			return false
		}
	}
	return true
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	components := make(map[string]bool, len(m.status.Components))
	for name, ok := range m.status.Components {
		components[name] = ok
	}
	return Status{Components: components, LastCheck: m.status.LastCheck}
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
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
	components := make(map[string]bool, len(m.probes))

	for name, probe := range m.probes {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := probe(ctx)
		cancel()

		components[name] = err == nil
		if err != nil {
			m.logger.Warn("dependency unhealthy", zap.String("component", name), zap.Error(err))
		}
	}

	m.mu.Lock()
	m.status = Status{Components: components, LastCheck: time.Now()}
	m.mu.Unlock()
}
