package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// Topic names a family of streamed events.
type Topic string

const (
	TopicSurface Topic = "surface"
	TopicToolbar Topic = "toolbar"
	TopicTap     Topic = "tap"
)

// Message is one event on the stream.
type Message struct {
	Topic Topic
	Data  []byte
}

// StreamManager fans broadcast messages out to every SSE subscriber.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Message]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber. The returned function unregisters it and closes
// the channel.
func (sm *StreamManager) Subscribe() (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast encodes v as JSON and offers it to every subscriber. Slow subscribers miss
// the message rather than block the caller.
func (sm *StreamManager) Broadcast(topic Topic, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: failed to encode event", "topic", topic, "err", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- Message{Topic: topic, Data: data}:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "topic", topic)
		}
	}
}

// parseWatch reads the comma-separated topic filter. Empty means every topic.
func parseWatch(raw string) map[Topic]bool {
	if raw == "" {
		return nil
	}
	watch := make(map[Topic]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			watch[Topic(t)] = true
		}
	}
	return watch
}

// SubscribeEvents handles GET /events (SSE). Surface changes, toolbar changes and tap
// outcomes are streamed as named events; ?watch=surface,tap narrows the stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	watch := parseWatch(r.URL.Query().Get("watch"))
	wants := func(t Topic) bool { return watch == nil || watch[t] }

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	surfaceEvents := s.Panel.Surface().Watch(ctx)
	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	s.logger.Info("SSE: client subscribed", "watch", r.URL.Query().Get("watch"))
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE: client disconnected")
			return
		case ev, ok := <-surfaceEvents:
			if !ok {
				return
			}
			if !wants(TopicSurface) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", TopicSurface, data)
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !wants(msg.Topic) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Topic, msg.Data)
			flusher.Flush()
		}
	}
}
