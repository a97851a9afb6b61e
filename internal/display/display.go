// Package display tracks kiosk screens connected to the board.
package display

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const DefaultQueueSize = 8

type Status string

const (
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusClosed     Status = "closed"
)

// Info is a point-in-time view of a display.
type Info struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Status        Status    `json:"status"`
	UserAgent     string    `json:"user_agent,omitempty"`
	RemoteAddr    string    `json:"remote_addr,omitempty"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	MessagesSent  uint64    `json:"messages_sent"`
	Dropped       uint64    `json:"dropped"`
	Queued        int       `json:"queued"`
}

// Display is one connected screen. Outgoing messages go through a bounded
// queue drained by the connection's writer; when it is full the oldest
// message is dropped so a slow screen never holds up the board.
type Display struct {
	ID          string
	UserAgent   string
	RemoteAddr  string
	ConnectedAt time.Time

	mu     sync.Mutex
	name   string
	status Status

	heartbeat atomic.Int64
	sent      atomic.Uint64
	dropped   atomic.Uint64

	queue     chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func New(queueSize int) *Display {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	now := time.Now().UTC()
	d := &Display{
		ID:          uuid.NewString(),
		ConnectedAt: now,
		status:      StatusConnecting,
		queue:       make(chan []byte, queueSize),
		closed:      make(chan struct{}),
	}
	d.heartbeat.Store(now.UnixNano())
	return d
}

// Enqueue queues msg for the writer. It never blocks and returns how many
// older messages it dropped to make room.
func (d *Display) Enqueue(msg []byte) (dropped int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == StatusClosed {
		return 0
	}
	for {
		select {
		case d.queue <- msg:
			return dropped
		default:
		}
		select {
		case <-d.queue:
			d.dropped.Add(1)
			dropped++
		default:
		}
	}
}

// Queue is drained by the connection writer.
func (d *Display) Queue() <-chan []byte {
	return d.queue
}

// Closed is closed once the display has been removed.
func (d *Display) Closed() <-chan struct{} {
	return d.closed
}

func (d *Display) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.status = StatusClosed
		d.mu.Unlock()
		close(d.closed)
	})
}

func (d *Display) MarkSent() {
	d.sent.Add(1)
}

func (d *Display) UpdateHeartbeat() {
	d.heartbeat.Store(time.Now().UTC().UnixNano())
}

func (d *Display) LastHeartbeat() time.Time {
	return time.Unix(0, d.heartbeat.Load()).UTC()
}

// SetActive records the name a screen announced in its hello message.
func (d *Display) SetActive(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == StatusClosed {
		return
	}
	d.name = name
	d.status = StatusActive
}

func (d *Display) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

func (d *Display) Info() Info {
	d.mu.Lock()
	name, status := d.name, d.status
	d.mu.Unlock()
	return Info{
		ID:            d.ID,
		Name:          name,
		Status:        status,
		UserAgent:     d.UserAgent,
		RemoteAddr:    d.RemoteAddr,
		ConnectedAt:   d.ConnectedAt,
		LastHeartbeat: d.LastHeartbeat(),
		MessagesSent:  d.sent.Load(),
		Dropped:       d.dropped.Load(),
		Queued:        len(d.queue),
	}
}
