package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// StreamManager fans session views out to websocket subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- *parley.View]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- *parley.View]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for a session's views. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan *parley.View, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan *parley.View, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- *parley.View]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Broadcast sends view to every subscriber of the session.
// Slow subscribers miss views rather than block the caller.
func (sm *StreamManager) Broadcast(sessionID string, view *parley.View) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- view:
		default:
			sm.logger.Warn("Stream: Client buffer full, dropping view", "session_id", sessionID)
		}
	}
}

// Subscribers counts the open streams of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

type wsInbound struct {
	Type  string `json:"type"`
	Index int    `json:"index,omitempty"`
}

type wsOutbound struct {
	Type    string       `json:"type"`
	View    *parley.View `json:"view,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Stream handles GET /sessions/{id}/ws. The socket receives the current
// view, then every view produced by any client of the session. Clients may
// drive the dialogue with {"type":"continue"} or {"type":"choose","index":n}.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	first, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Stream: upgrade failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	views, unsubscribe := s.Streams.Subscribe(id)
	defer unsubscribe()
	s.logger.Info("Stream: client connected", "session_id", id)

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan wsOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case view, ok := <-views:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(wsOutbound{Type: "view", View: view}); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	push(writeCh, wsOutbound{Type: "view", View: first})

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			s.logger.Info("Stream: client disconnected", "session_id", id)
			cancel()
			<-writerDone
			return
		}

		var view *parley.View
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "continue":
			view, err = s.Engine.Continue(ctx, id)
		case "choose":
			view, err = s.Engine.Choose(ctx, id, in.Index)
		default:
			push(writeCh, wsOutbound{Type: "error", Message: "unknown message type " + in.Type})
			continue
		}
		if err != nil {
			push(writeCh, wsOutbound{Type: "error", Message: err.Error()})
			continue
		}
		// This socket gets the view through its own subscription.
		s.Streams.Broadcast(id, view)
	}
}

func push(ch chan<- wsOutbound, msg wsOutbound) {
	select {
	case ch <- msg:
	default:
	}
}
