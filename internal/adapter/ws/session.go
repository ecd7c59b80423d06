package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/stage"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Message is what the server pushes. Exactly one field is set.
type Message struct {
	Frame *stage.Frame `json:"frame,omitempty"`
	Error string       `json:"error,omitempty"`
}

type session struct {
	id      string
	chart   string
	conn    *websocket.Conn
	send    chan []byte
	logger  *slog.Logger
	metrics *observability.Metrics

	stage  *stage.Stage
	events *stage.Dispatcher // read pump only
}

func newSession(h *Handler, conn *websocket.Conn, chartID string) *session {
	id := uuid.NewString()
	s := &session{
		id:      id,
		chart:   chartID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		logger:  h.logger.With("session", id),
		metrics: h.metrics,
	}
	s.stage = stage.New(h.registry, h.loader, s.emit, h.opts...)
	s.events = stage.NewDispatcher(s.stage)
	return s
}

// run blocks until the client goes away or ctx is cancelled. Every chart the
// session mounted is released before it returns.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	stageDone := make(chan struct{})
	go func() {
		s.stage.Run(ctx)
		close(stageDone)
	}()
	writeDone := make(chan struct{})
	go func() {
		s.writePump()
		close(writeDone)
	}()
	go func() {
		// Unblocks the read pump on shutdown.
		<-ctx.Done()
		s.conn.Close()
	}()

	s.metrics.LiveSessions.Inc()
	s.logger.Info("session opened", "chart", s.chart)

	s.dispatch(domain.ViewportEvent{Type: domain.EventMount})
	s.readPump()

	cancel()
	<-stageDone
	close(s.send)
	<-writeDone

	s.metrics.LiveSessions.Dec()
	s.logger.Info("session closed", "chart", s.chart)
}

func (s *session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		var ev domain.ViewportEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.reject(fmt.Errorf("%w: %w", domain.ErrInvalidEvent, err))
			continue
		}
		s.dispatch(ev)
	}
}

// dispatch fills in the session and default chart, then applies ev.
func (s *session) dispatch(ev domain.ViewportEvent) {
	ev.Session = s.id
	if ev.Chart == "" {
		ev.Chart = s.chart
	}
	if err := ev.Validate(); err != nil {
		s.reject(err)
		return
	}
	if err := s.events.Apply(ev); err != nil {
		s.reject(err)
	}
}

func (s *session) reject(err error) {
	s.metrics.EventErrors.Inc()
	s.logger.Debug("event rejected", "error", err)
	s.push(Message{Error: err.Error()})
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// emit runs on the stage goroutine and must not block.
func (s *session) emit(f stage.Frame) {
	s.push(Message{Frame: &f})
}

// push queues a message. A client that cannot keep up is disconnected.
func (s *session) push(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		s.logger.Error("marshal message failed", "error", err)
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn("client too slow, closing session")
		s.conn.Close()
	}
}
