package summary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/repairboard/kioskd/internal/board"
	"github.com/repairboard/kioskd/internal/telemetry"
)

var ErrAlreadyStarted = errors.New("monitor already started")

// Source exposes the board's last published rotation.
type Source interface {
	Ranked() []board.RankedEntry
	RotationSeq() uint64
}

// Sink is the presentation side of the monitor.
type Sink interface {
	Publish(ctx context.Context, s Summary) error
}

type SinkFunc func(ctx context.Context, s Summary) error

func (f SinkFunc) Publish(ctx context.Context, s Summary) error {
	return f(ctx, s)
}

// MultiSink publishes to every sink in order.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, s Summary) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Option func(*Monitor)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

// WithStartTime sets the reference point for the running-time header.
func WithStartTime(t time.Time) Option {
	return func(m *Monitor) {
		m.startedAt = t
	}
}

// Monitor periodically summarises the board. It never writes to the board
// or the store.
type Monitor struct {
	source    Source
	sink      Sink
	interval  time.Duration
	logger    *zap.SugaredLogger
	metrics   *telemetry.Metrics
	startedAt time.Time

	last atomic.Pointer[Summary]

	started  atomic.Bool
	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func NewMonitor(source Source, sink Sink, interval time.Duration, opts ...Option) (*Monitor, error) {
	if source == nil {
		return nil, errors.New("monitor source is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("monitor interval must be positive, got %s", interval)
	}
	m := &Monitor{
		source:    source,
		sink:      sink,
		interval:  interval,
		startedAt: time.Now(),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop().Sugar()
	}
	return m, nil
}

// Current computes a summary from the board's current rotation without
// publishing it.
func (m *Monitor) Current() Summary {
	now := time.Now()
	return Compute(m.source.Ranked(), m.source.RotationSeq(), now.Sub(m.startedAt), now)
}

// Refresh computes a summary and hands it to the sink. Sink failures are
// logged and counted, never returned.
func (m *Monitor) Refresh(ctx context.Context) Summary {
	s := m.Current()
	m.last.Store(&s)

	err := m.publish(ctx, s)
	if err != nil {
		m.logger.Warnf("Summary publish failed: %v", err)
	}
	m.metrics.SummaryPublished(err == nil)
	m.logger.Debugf("Summary updated: completed=%d finalInspection=%d inProgress=%d",
		s.Completed, s.FinalInspection, s.InProgress)
	return s
}

// Last returns the most recently published summary.
func (m *Monitor) Last() (Summary, bool) {
	s := m.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

func (m *Monitor) publish(ctx context.Context, s Summary) (err error) {
	if m.sink == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summary sink panicked: %v", r)
		}
	}()
	return m.sink.Publish(ctx, s)
}

// Run publishes once immediately, then every interval until ctx is
// cancelled or Stop is called.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(m.done)

	select {
	case <-m.quit:
		return nil
	default:
	}

	m.logger.Infof("Starting summary monitor (interval: %s)", m.interval)
	m.Refresh(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Summary monitor stopping")
			return nil
		case <-m.quit:
			m.logger.Info("Summary monitor stopped")
			return nil
		case <-ticker.C:
			select {
			case <-m.quit:
				m.logger.Info("Summary monitor stopped")
				return nil
			default:
			}
			m.Refresh(ctx)
		}
	}
}

// Stop is idempotent and waits for an in-flight refresh to finish.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
	})
	if m.started.Load() {
		<-m.done
	}
}
