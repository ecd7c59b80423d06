package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/observability"
	"github.com/couchcryptid/climate-story/internal/stage"
)

// SessionRenderer implements Transformer. Each viewer session gets its own
// stage, so resize fan-out and visibility gates stay per page. Sessions whose
// last chart unmounts are stopped, and so are sessions that send nothing for
// the idle TTL.
type SessionRenderer struct {
	registry *chart.Registry
	loader   dataset.Loader
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     []stage.Option
	clock    clockwork.Clock
	idleTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// RendererOption configures a SessionRenderer.
type RendererOption func(*SessionRenderer)

// WithIdleTTL stops sessions that send no event for ttl. Zero keeps sessions
// until they unmount.
func WithIdleTTL(ttl time.Duration) RendererOption {
	return func(r *SessionRenderer) { r.idleTTL = ttl }
}

// WithClock sets the time source for idle tracking.
func WithClock(c clockwork.Clock) RendererOption {
	return func(r *SessionRenderer) { r.clock = c }
}

type session struct {
	id       string
	stage    *stage.Stage
	cancel   context.CancelFunc
	done     chan struct{}
	events   *stage.Dispatcher
	lastSeen time.Time // guarded by SessionRenderer.mu

	mu     sync.Mutex
	frames []stage.Frame
}

func (s *session) emit(f stage.Frame) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
}

func (s *session) take() []stage.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.frames
	s.frames = nil
	return out
}

// NewSessionRenderer creates a renderer. Frames are produced without entrance
// animation: a consumer of the frame topic gets the final scene of every draw.
func NewSessionRenderer(reg *chart.Registry, loader dataset.Loader, logger *slog.Logger, metrics *observability.Metrics, debounce time.Duration, opts ...RendererOption) *SessionRenderer {
	r := &SessionRenderer{
		registry: reg,
		loader:   loader,
		logger:   logger,
		metrics:  metrics,
		opts: []stage.Option{
			stage.WithAnimation(false),
			stage.WithDebounce(debounce),
			stage.WithLogger(logger),
			stage.WithMetrics(metrics),
		},
		clock:    domain.Clock(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transform applies events in order, waits for every touched session to settle
// and returns the frames they emitted. An event that cannot be applied is
// logged and counted; it does not fail the batch.
func (r *SessionRenderer) Transform(ctx context.Context, events []domain.ViewportEvent) ([]domain.OutputEvent, error) {
	now := r.clock.Now()
	r.reap(now, events)

	var touched []*session
	seen := make(map[string]bool)

	for _, ev := range events {
		sess := r.session(ev.Session, now)
		if err := sess.events.Apply(ev); err != nil {
			r.logger.Warn("apply event failed",
				"error", err,
				"session", ev.Session,
				"chart", ev.Chart,
				"type", ev.Type,
			)
			r.metrics.EventErrors.Inc()
		}
		if !seen[sess.id] {
			seen[sess.id] = true
			touched = append(touched, sess)
		}
	}

	var out []domain.OutputEvent
	for _, sess := range touched {
		if err := sess.stage.Sync(ctx); err != nil {
			return nil, fmt.Errorf("sync session %s: %w", sess.id, err)
		}
		for _, f := range sess.take() {
			msg, err := SerializeFrame(sess.id, f)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
		if sess.events.Mounted() == 0 {
			r.stop(sess)
		}
	}
	return out, nil
}

func (r *SessionRenderer) session(id string, now time.Time) *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		sess.lastSeen = now
		return sess
	}
	sess := &session{
		id:       id,
		done:     make(chan struct{}),
		lastSeen: now,
	}
	sess.stage = stage.New(r.registry, r.loader, sess.emit, r.opts...)
	sess.events = stage.NewDispatcher(sess.stage)
	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	go func() {
		sess.stage.Run(ctx)
		close(sess.done)
	}()
	r.sessions[id] = sess
	r.logger.Debug("session started", "session", id)
	return sess
}

// reap stops sessions idle for at least the TTL. Sessions with events in
// the current batch are kept whatever their age.
func (r *SessionRenderer) reap(now time.Time, events []domain.ViewportEvent) {
	if r.idleTTL <= 0 {
		return
	}
	active := make(map[string]bool, len(events))
	for _, ev := range events {
		active[ev.Session] = true
	}

	r.mu.Lock()
	var idle []*session
	for id, sess := range r.sessions {
		if !active[id] && now.Sub(sess.lastSeen) >= r.idleTTL {
			idle = append(idle, sess)
		}
	}
	r.mu.Unlock()

	for _, sess := range idle {
		r.logger.Info("stopping idle session", "session", sess.id, "idle_ttl", r.idleTTL)
		r.stop(sess)
	}
}

func (r *SessionRenderer) stop(sess *session) {
	r.mu.Lock()
	delete(r.sessions, sess.id)
	r.mu.Unlock()
	sess.cancel()
	<-sess.done
	r.logger.Debug("session stopped", "session", sess.id)
}

// Sessions returns the number of live sessions.
func (r *SessionRenderer) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every session.
func (r *SessionRenderer) Close() {
	r.mu.Lock()
	sessions := make([]*session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.Unlock()
	for _, sess := range sessions {
		r.stop(sess)
	}
}

// SerializeFrame marshals a frame into an output event keyed by session, so
// every frame of one page lands on the same partition in order.
func SerializeFrame(sessionID string, f stage.Frame) (domain.OutputEvent, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize frame: %w", err)
	}
	return domain.OutputEvent{
		Key:   []byte(sessionID),
		Value: data,
		Headers: map[string]string{
			"chart":       f.ChartID,
			"mode":        string(f.Mode),
			"rendered_at": domain.Clock().Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
