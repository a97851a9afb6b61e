// Package viewer is a terminal client for the board's display channel.
package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/repairboard/kioskd/internal/summary"
	"github.com/repairboard/kioskd/internal/ws"
)

const (
	DefaultReconnectDelay    = 5 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
)

type Option func(*Viewer)

func WithName(name string) Option {
	return func(v *Viewer) {
		v.name = name
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(v *Viewer) {
		v.logger = logger
	}
}

func WithReconnectDelay(d time.Duration) Option {
	return func(v *Viewer) {
		v.reconnectDelay = d
	}
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(v *Viewer) {
		v.heartbeatInterval = d
	}
}

// Viewer connects to a board as a display and prints what it receives.
type Viewer struct {
	url               string
	name              string
	out               io.Writer
	logger            *zap.SugaredLogger
	reconnectDelay    time.Duration
	heartbeatInterval time.Duration

	mu        sync.Mutex
	displayID string
	pages     int
	summaries int
}

func New(url string, out io.Writer, opts ...Option) *Viewer {
	v := &Viewer{
		url:               url,
		out:               out,
		reconnectDelay:    DefaultReconnectDelay,
		heartbeatInterval: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = zap.NewNop().Sugar()
	}
	return v
}

// Run keeps a connection open until ctx is cancelled, reconnecting after
// every failure.
func (v *Viewer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := v.connect(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				v.logger.Warnf("Connection error: %v, reconnecting in %s...", err, v.reconnectDelay)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(v.reconnectDelay):
				}
			}
		}
	}
}

func (v *Viewer) connect(ctx context.Context) error {
	v.logger.Infof("Connecting to %s...", v.url)

	conn, _, err := websocket.Dial(ctx, v.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "goodbye")

	var ack ws.AckMessage
	if err := wsjson.Read(ctx, conn, &ack); err != nil {
		return fmt.Errorf("read ack: %w", err)
	}
	v.mu.Lock()
	v.displayID = ack.DisplayID
	v.mu.Unlock()
	v.logger.Infof("Connected to board %s as display %s", ack.BoardID, ack.DisplayID)

	if err := wsjson.Write(ctx, conn, ws.HelloMessage{Type: ws.TypeHello, Name: v.name}); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go v.heartbeat(hbCtx, conn)

	return v.messageLoop(ctx, conn)
}

func (v *Viewer) messageLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var base ws.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			v.logger.Warnf("Invalid message: %v", err)
			continue
		}

		switch base.Type {
		case ws.TypePage:
			var page ws.PageMessage
			if err := json.Unmarshal(data, &page); err != nil {
				v.logger.Warnf("Invalid page message: %v", err)
				continue
			}
			v.printPage(page)

		case ws.TypeSummary:
			var sum ws.SummaryMessage
			if err := json.Unmarshal(data, &sum); err != nil {
				v.logger.Warnf("Invalid summary message: %v", err)
				continue
			}
			v.printSummary(sum)

		case ws.TypeHeartbeat:
			// Board acknowledged

		default:
			v.logger.Debugf("Unknown message type: %s", base.Type)
		}
	}
}

func (v *Viewer) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(v.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := ws.HeartbeatMessage{Type: ws.TypeHeartbeat, Timestamp: time.Now().UTC()}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				return
			}
		}
	}
}

func (v *Viewer) printPage(page ws.PageMessage) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s page %d/%d (rotation %d)\n",
		color.New(color.Bold).Sprint(page.BoardID), page.Page+1, max(page.TotalPages, 1), page.Rotation)
	if len(page.Cards) == 0 {
		b.WriteString("  (no jobs)\n")
	}
	for _, c := range page.Cards {
		fmt.Fprintf(&b, "  %2d  %-12s %-16s %s  %s\n",
			c.Rank, c.Plate, c.Model, summary.ColorStatus(c.Status), c.Info)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.pages++
	io.WriteString(v.out, b.String())
}

func (v *Viewer) printSummary(sum ws.SummaryMessage) {
	line := fmt.Sprintf("%s completed %d, final inspection %d, in progress %d (up %s)\n",
		color.New(color.FgHiMagenta).Sprint("summary"),
		sum.Completed, sum.FinalInspection, sum.InProgress, sum.Uptime)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.summaries++
	io.WriteString(v.out, line)
}

// Stats reports the current display ID and how many pages and summaries
// have been printed.
func (v *Viewer) Stats() (displayID string, pages, summaries int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayID, v.pages, v.summaries
}
