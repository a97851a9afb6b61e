package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/repairboard/kioskd/internal/repair"
	"github.com/repairboard/kioskd/internal/telemetry"
)

var ErrAlreadyStarted = errors.New("scheduler already started")

// RenderSink receives one page per tick. Its result is only used for
// logging; the scheduler never retries.
type RenderSink interface {
	Render(ctx context.Context, page PageWindow) error
}

// RenderFunc adapts a function to RenderSink.
type RenderFunc func(ctx context.Context, page PageWindow) error

func (f RenderFunc) Render(ctx context.Context, page PageWindow) error {
	return f(ctx, page)
}

// Source is the part of the repair store the scheduler reads.
type Source interface {
	Snapshot() []repair.Record
}

// rotation is published whole and never modified afterwards.
type rotation struct {
	seq      uint64
	entries  []RankedEntry
	sortedAt time.Time
}

// State describes the scheduler after its most recent tick.
type State struct {
	NextPage  int       `json:"nextPage"`
	Rotation  uint64    `json:"rotation"`
	Ranked    int       `json:"ranked"`
	SortedAt  time.Time `json:"sortedAt"`
	Ticks     uint64    `json:"ticks"`
	LastTick  time.Time `json:"lastTick"`
	PageSize  int       `json:"pageSize"`
	LastError string    `json:"lastError,omitempty"`
}

type Option func(*Scheduler)

func WithPageSize(n int) Option {
	return func(s *Scheduler) {
		s.pageSize = n
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithRotationHook runs fn at the start of every rotation, before the
// store snapshot is taken.
func WithRotationHook(fn func()) Option {
	return func(s *Scheduler) {
		s.onRotation = fn
	}
}

// Scheduler drives the board: on every tick it renders the next page of the
// current rotation, and at page 0 it first re-sorts a fresh store snapshot.
// Records changed mid-rotation show up in the following rotation.
type Scheduler struct {
	source     Source
	sink       RenderSink
	interval   time.Duration
	pageSize   int
	logger     *zap.SugaredLogger
	metrics    *telemetry.Metrics
	onRotation func()

	tickMu    sync.Mutex
	pageIndex int
	ticks     uint64

	current atomic.Pointer[rotation]
	state   atomic.Pointer[State]

	started  atomic.Bool
	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func NewScheduler(source Source, sink RenderSink, interval time.Duration, opts ...Option) (*Scheduler, error) {
	if source == nil {
		return nil, errors.New("scheduler source is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}

	s := &Scheduler{
		source:   source,
		sink:     sink,
		interval: interval,
		pageSize: DefaultPageSize,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", s.pageSize)
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}

	s.current.Store(&rotation{entries: []RankedEntry{}})
	s.state.Store(&State{PageSize: s.pageSize})
	return s, nil
}

// Run ticks every interval until ctx is cancelled or Stop is called. The
// first tick fires one interval after Run starts.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(s.done)

	s.logger.Infof("Starting display scheduler (interval: %s, page size: %d)", s.interval, s.pageSize)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Display scheduler stopping")
			return nil
		case <-s.quit:
			s.logger.Info("Display scheduler stopped")
			return nil
		case <-ticker.C:
			// A stop that raced with the ticker wins over the tick.
			select {
			case <-s.quit:
				s.logger.Info("Display scheduler stopped")
				return nil
			default:
			}
			s.Tick(ctx)
		}
	}
}

// Stop prevents further ticks and waits for an in-flight tick to finish.
// It is safe to call more than once, and before Run. It must not be called
// from inside a RenderSink.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	if s.started.Load() {
		<-s.done
	}
}

// Tick runs one cycle: RESORT (at page 0), PAGINATE, RENDER, ADVANCE. It
// returns the page handed to the sink.
func (s *Scheduler) Tick(ctx context.Context) PageWindow {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.pageIndex == 0 {
		s.resort()
	}

	rot := s.current.Load()
	page := Paginate(rot.entries, s.pageIndex, s.pageSize)
	page.Rotation = rot.seq

	s.logger.Debugf("Rendering page %d/%d of rotation %d (%d items)",
		page.Index+1, page.TotalPages, rot.seq, len(page.Items))

	var lastErr string
	if err := s.render(ctx, page); err != nil {
		s.logger.Errorf("Render failed for page %d of rotation %d: %v", page.Index, rot.seq, err)
		s.metrics.RenderFailure()
		lastErr = err.Error()
	}
	s.metrics.Tick(page.Index)

	s.advance(len(rot.entries))
	s.ticks++
	s.state.Store(&State{
		NextPage:  s.pageIndex,
		Rotation:  rot.seq,
		Ranked:    len(rot.entries),
		SortedAt:  rot.sortedAt,
		Ticks:     s.ticks,
		LastTick:  time.Now(),
		PageSize:  s.pageSize,
		LastError: lastErr,
	})
	return page
}

func (s *Scheduler) resort() {
	if s.onRotation != nil {
		s.onRotation()
	}

	ranked := Rank(s.source.Snapshot())
	prev := s.current.Load()
	s.current.Store(&rotation{
		seq:      prev.seq + 1,
		entries:  ranked,
		sortedAt: time.Now(),
	})
	s.metrics.Rotation()

	s.logger.Infof("Rotation %d started: %d jobs ranked", prev.seq+1, len(ranked))
	for _, e := range ranked {
		s.logger.Debugf("Ranked[%d]: %s %s - %s (finish: %s)",
			e.Rank, e.Record.Plate, e.Record.Model, e.Record.Status, orNone(e.Record.EstimatedFinish))
	}
}

func (s *Scheduler) render(ctx context.Context, page PageWindow) (err error) {
	if s.sink == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render sink panicked: %v", r)
		}
	}()
	return s.sink.Render(ctx, page)
}

func (s *Scheduler) advance(ranked int) {
	s.pageIndex++
	total := TotalPages(ranked, s.pageSize)
	if s.pageIndex >= total {
		if total > 0 {
			s.logger.Debugf("Page cycle completed after %d pages (%d jobs)", total, ranked)
		}
		s.pageIndex = 0
	}
}

// Ranked returns a copy of the current rotation's ranked list. Every call
// within one rotation returns the same sequence.
func (s *Scheduler) Ranked() []RankedEntry {
	return slices.Clone(s.current.Load().entries)
}

// RotationSeq returns the number of rotations started so far.
func (s *Scheduler) RotationSeq() uint64 {
	return s.current.Load().seq
}

func (s *Scheduler) State() State {
	return *s.state.Load()
}

func orNone(t repair.TimeOfDay) string {
	if !t.IsSet() {
		return "none"
	}
	return t.String()
}
