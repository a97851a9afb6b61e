package display

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/repairboard/kioskd/internal/telemetry"
)

type Stats struct {
	Connected    int    `json:"connected"`
	Active       int    `json:"active"`
	MessagesSent uint64 `json:"messagesSent"`
	Dropped      uint64 `json:"dropped"`
}

type Manager struct {
	mu       sync.RWMutex
	displays map[string]*Display
	logger   *zap.SugaredLogger
	metrics  *telemetry.Metrics
}

func NewManager(logger *zap.SugaredLogger, metrics *telemetry.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &Manager{
		displays: make(map[string]*Display),
		logger:   logger,
		metrics:  metrics,
	}
	metrics.WatchDisplays(m.Len)
	return m
}

func (m *Manager) Add(d *Display) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displays[d.ID] = d
	m.logger.Infof("Display connected: %s (total: %d)", d.ID, len(m.displays))
}

// Remove forgets the display and closes it.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	d, ok := m.displays[id]
	delete(m.displays, id)
	total := len(m.displays)
	m.mu.Unlock()
	if !ok {
		return
	}
	d.Close()
	m.logger.Infof("Display disconnected: %s (total: %d)", id, total)
}

func (m *Manager) Get(id string) (*Display, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.displays[id]
	return d, ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.displays)
}

// List returns every display, oldest connection first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.displays))
	for _, d := range m.displays {
		out = append(out, d.Info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Stats
	s.Connected = len(m.displays)
	for _, d := range m.displays {
		if d.Status() == StatusActive {
			s.Active++
		}
		s.MessagesSent += d.sent.Load()
		s.Dropped += d.dropped.Load()
	}
	return s
}

// Broadcast queues msg on every display and returns how many received it.
func (m *Manager) Broadcast(msg []byte) int {
	m.mu.RLock()
	targets := make([]*Display, 0, len(m.displays))
	for _, d := range m.displays {
		targets = append(targets, d)
	}
	m.mu.RUnlock()

	dropped, slow := 0, 0
	for _, d := range targets {
		if n := d.Enqueue(msg); n > 0 {
			dropped += n
			slow++
		}
	}
	if dropped > 0 {
		m.logger.Warnf("Dropped %d stale messages for %d slow displays", dropped, slow)
		m.metrics.Dropped(dropped)
	}
	return len(targets)
}

// CloseAll disconnects every display.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	displays := m.displays
	m.displays = make(map[string]*Display)
	m.mu.Unlock()

	for _, d := range displays {
		d.Close()
	}
	if len(displays) > 0 {
		m.logger.Infof("Closed %d displays", len(displays))
	}
}
