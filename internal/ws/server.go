package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/repairboard/kioskd/internal/board"
	"github.com/repairboard/kioskd/internal/display"
	"github.com/repairboard/kioskd/internal/summary"
)

const DefaultWriteTimeout = 5 * time.Second

type Options struct {
	BoardID      string
	MaskPlates   bool
	SendQueue    int
	WriteTimeout time.Duration
}

// Server pushes board pages and summaries to connected displays. It is the
// board's RenderSink and the monitor's presentation sink.
type Server struct {
	displays *display.Manager
	opts     Options
	logger   *zap.SugaredLogger

	lastMu      sync.RWMutex
	lastPage    []byte
	lastSummary []byte
}

var (
	_ board.RenderSink = (*Server)(nil)
	_ summary.Sink     = (*Server)(nil)
)

func NewServer(displays *display.Manager, opts Options, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = display.DefaultQueueSize
	}
	return &Server{
		displays: displays,
		opts:     opts,
		logger:   logger,
	}
}

// Render converts the page to cards and queues it on every display. Slow
// displays lose older messages instead of delaying the board.
func (s *Server) Render(_ context.Context, page board.PageWindow) error {
	msg := PageMessage{
		Type:       TypePage,
		BoardID:    s.opts.BoardID,
		Page:       page.Index,
		TotalPages: page.TotalPages,
		Rotation:   page.Rotation,
		Cards:      board.Cards(page, s.opts.MaskPlates),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}

	s.lastMu.Lock()
	s.lastPage = data
	s.lastMu.Unlock()

	n := s.displays.Broadcast(data)
	s.logger.Debugf("Page %d/%d sent to %d displays", page.Index+1, page.TotalPages, n)
	return nil
}

func (s *Server) Publish(_ context.Context, sum summary.Summary) error {
	msg := SummaryMessage{
		Type:            TypeSummary,
		BoardID:         s.opts.BoardID,
		Completed:       sum.Completed,
		FinalInspection: sum.FinalInspection,
		InProgress:      sum.InProgress,
		Uptime:          sum.Uptime,
		Listing:         sum.Listing,
		GeneratedAt:     sum.GeneratedAt,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	s.lastMu.Lock()
	s.lastSummary = data
	s.lastMu.Unlock()

	s.displays.Broadcast(data)
	return nil
}

func (s *Server) HandleDisplay(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // kiosks are served from anywhere on the shop LAN
	})
	if err != nil {
		s.logger.Warnf("WebSocket accept error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "goodbye")

	d := display.New(s.opts.SendQueue)
	d.UserAgent = r.UserAgent()
	d.RemoteAddr = r.RemoteAddr

	ack := AckMessage{
		Type:      TypeAck,
		DisplayID: d.ID,
		BoardID:   s.opts.BoardID,
		Message:   "Welcome!",
	}
	if err := s.write(r.Context(), conn, ack); err != nil {
		s.logger.Warnf("Failed to send ack: %v", err)
		return
	}

	s.displays.Add(d)
	defer s.displays.Remove(d.ID)

	// New screens show the current page and summary without waiting for
	// the next tick.
	s.lastMu.RLock()
	for _, msg := range [][]byte{s.lastPage, s.lastSummary} {
		if msg != nil {
			d.Enqueue(msg)
		}
	}
	s.lastMu.RUnlock()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		s.writeLoop(ctx, conn, d)
	}()

	s.handleMessages(ctx, conn, d)
	cancel()
	wg.Wait()
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, d *display.Display) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.Closed():
			return
		case msg := <-d.Queue():
			wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Warnf("Failed to write to display %s: %v", d.ID, err)
				}
				return
			}
			d.MarkSent()
		}
	}
}

func (s *Server) handleMessages(ctx context.Context, conn *websocket.Conn, d *display.Display) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				s.logger.Warnf("WebSocket read error: %v", err)
			}
			return
		}

		var msg BaseMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warnf("Invalid message format: %v", err)
			continue
		}

		switch msg.Type {
		case TypeHello:
			var hello HelloMessage
			if err := json.Unmarshal(data, &hello); err != nil {
				s.logger.Warnf("Invalid hello message: %v", err)
				continue
			}
			d.SetActive(hello.Name)
			s.logger.Infof("Display %s ready (name: %q)", d.ID, hello.Name)

		case TypeHeartbeat:
			d.UpdateHeartbeat()
			hb, _ := json.Marshal(HeartbeatMessage{Type: TypeHeartbeat, Timestamp: time.Now().UTC()})
			d.Enqueue(hb)

		case TypeQuit:
			s.logger.Infof("Display %s quit", d.ID)
			return

		default:
			s.logger.Warnf("Unknown message type: %s", msg.Type)
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

// Close disconnects every display.
func (s *Server) Close() {
	s.displays.CloseAll()
}
