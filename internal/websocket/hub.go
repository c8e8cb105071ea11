// Package websocket streams run progress and log messages to connected
// front ends. The stream is strictly one-way: clients receive status, they
// never feed anything back into the pipeline.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"esgcli/internal/pipeline"
)

// Message types on the progress stream.
const (
	TypeProgress = "progress"
	TypeLog      = "log"
	TypeComplete = "complete"
	TypeError    = "error"
)

// Message levels.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelSuccess = "success"
)

// Message is one JSON frame on the progress stream.
type Message struct {
	Type      string    `json:"type"`
	Level     string    `json:"level,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Progress  float64   `json:"progress,omitempty"`
	Text      string    `json:"message"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks connected clients and fans broadcast frames out to them. All
// client-map access happens on the Run goroutine; callers only touch the
// channels.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
	count      atomic.Int64
}

// NewHub creates an idle hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run services the hub until the context is canceled, then closes every
// client. Closing done releases any pump still trying to register or
// unregister after the loop has stopped.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.count.Store(0)
			close(h.done)
			return
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			h.logger.Debug("websocket client registered", slog.Int64("clients", h.count.Load()))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.count.Store(int64(len(h.clients)))
			}
		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Slow consumer: drop it rather than stall the run.
					delete(h.clients, client)
					close(client.send)
					h.count.Store(int64(len(h.clients)))
				}
			}
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Broadcast queues a message for every connected client. Frames are dropped
// when the hub backlog is full; progress is advisory, never load-bearing.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- frame:
	default:
	}
}

// BroadcastProgress forwards a pipeline progress update.
func (h *Hub) BroadcastProgress(runID string, update pipeline.ProgressUpdate) {
	h.Broadcast(Message{
		Type:     TypeProgress,
		Level:    LevelInfo,
		Stage:    update.Stage,
		Progress: update.Progress,
		Text:     update.Message,
		RunID:    runID,
	})
}

// BroadcastLog publishes a log line to the stream.
func (h *Hub) BroadcastLog(runID, level, text string) {
	h.Broadcast(Message{Type: TypeLog, Level: level, Text: text, RunID: runID})
}
