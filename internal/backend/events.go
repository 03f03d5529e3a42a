package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"clipstudio/internal/config"
	"clipstudio/internal/logging"
	"clipstudio/internal/services"
)

// ErrHubClosed indicates the push channel was torn down.
var ErrHubClosed = errors.New("event hub closed")

// subscriberBuffer bounds per-subscriber queues. A subscriber that falls this
// far behind loses events; the pull path covers recovery.
const subscriberBuffer = 16

// Hub maintains the push channel to the backend and fans decoded events out
// to subscribers. The connection is dialed lazily on the first Subscribe and
// lives until Close; reconnection is the transport's responsibility, the hub
// only provides at-least-once delivery of whatever the connection yields.
type Hub struct {
	url    string
	tokens TokenSource
	logger *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	subs    map[EventType]map[string]chan Event
	started bool
	closed  bool
}

// NewHub builds a Hub from configuration.
func NewHub(cfg *config.Config, tokens TokenSource, logger *slog.Logger) *Hub {
	return &Hub{
		url:    cfg.Backend.WebSocketURL,
		tokens: tokens,
		logger: logging.NewComponentLogger(logger, "event-hub"),
		subs:   make(map[EventType]map[string]chan Event),
	}
}

// Subscribe registers interest in the given event types and returns the
// delivery channel plus an unsubscribe handle. The first subscriber triggers
// the WebSocket dial.
func (h *Hub) Subscribe(ctx context.Context, types ...EventType) (<-chan Event, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrHubClosed
	}
	if !h.started {
		if err := h.dial(ctx); err != nil {
			return nil, nil, err
		}
		h.started = true
	}

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	for _, eventType := range types {
		if h.subs[eventType] == nil {
			h.subs[eventType] = make(map[string]chan Event)
		}
		h.subs[eventType][id] = ch
	}

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, eventType := range types {
			delete(h.subs[eventType], id)
		}
	}
	return ch, unsubscribe, nil
}

// Close tears down the push channel. Subscriber channels remain open but
// receive no further events.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.conn != nil {
		return h.conn.Close()
	}
	return nil
}

func (h *Hub) dial(ctx context.Context) error {
	token, err := h.tokens.Token(ctx)
	if err != nil {
		return services.Wrap(services.ErrAuth, "event-hub", "dial", "resolve credentials", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, h.url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	if resp != nil {
		resp.Body.Close()
	}
	h.conn = conn
	go h.readLoop(conn)
	h.logger.Debug("push channel connected", logging.Args(logging.String("url", h.url))...)
	return nil
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			h.mu.Lock()
			closed := h.closed
			h.mu.Unlock()
			if !closed {
				h.logger.Warn("push channel read failed", logging.Args(logging.Error(err))...)
			}
			return
		}
		event, ok := decodeFrame(message)
		if !ok {
			h.logger.Warn("unrecognized push frame", logging.Args(logging.String("frame", string(message)))...)
			continue
		}
		h.dispatch(event)
	}
}

func (h *Hub) dispatch(event Event) {
	h.mu.Lock()
	targets := make([]chan Event, 0, len(h.subs[event.Type]))
	for _, ch := range h.subs[event.Type] {
		targets = append(targets, ch)
	}
	h.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
			h.logger.Warn("subscriber queue full, dropping event",
				logging.Args(logging.String(logging.FieldEventType, string(event.Type)))...)
		}
	}
}

func decodeFrame(message []byte) (Event, bool) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		return Event{}, false
	}
	event := Event{Type: f.Event}
	switch f.Event {
	case EventJobDone:
		payload := &JobDoneEvent{}
		if json.Unmarshal(f.Data, payload) != nil {
			return Event{}, false
		}
		event.JobDone = payload
	case EventSafetyResult:
		payload := &SafetyResultEvent{}
		if json.Unmarshal(f.Data, payload) != nil {
			return Event{}, false
		}
		event.SafetyResult = payload
	case EventClipUpdated:
		payload := &ClipUpdatedEvent{}
		if json.Unmarshal(f.Data, payload) != nil {
			return Event{}, false
		}
		event.ClipUpdated = payload
	case EventPublishState:
		payload := &PublishStateEvent{}
		if json.Unmarshal(f.Data, payload) != nil {
			return Event{}, false
		}
		event.PublishState = payload
	default:
		return Event{}, false
	}
	return event, true
}
