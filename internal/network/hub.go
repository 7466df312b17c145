// Package network exposes the engine over HTTP and WebSocket.
// It holds no game rules; every action goes through engine.Engine.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/engine"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/metrics"
)

// Server message types.
const (
	MessageState        = "STATE"
	MessageEvent        = "EVENT"
	MessageActionResult = "ACTION_RESULT"
)

// Message is the envelope of everything the server pushes.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// HubOptions tunes client limits.
type HubOptions struct {
	SendBuffer           int
	MaxMessagesPerSecond int
	MaxClients           int
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	engine  *engine.Engine
	logger  *logger.Logger
	metrics *metrics.Collector
	opts    HubOptions

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

// NewHub initializes a new WebSocket Hub.
func NewHub(eng *engine.Engine, log *logger.Logger, m *metrics.Collector, opts HubOptions) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.MaxMessagesPerSecond <= 0 {
		opts.MaxMessagesPerSecond = 50
	}
	return &Hub{
		engine:     eng,
		logger:     log,
		metrics:    m,
		opts:       opts,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Infof("WebSocket client %s connected", client.id)
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Slow consumer; drop it rather than stall everyone.
					delete(h.clients, client)
					close(client.send)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.metrics.RecordWSConnection(-1)
		h.logger.Infof("WebSocket client %s disconnected", client.id)
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// sendTo queues a message for one client if it is still connected.
func (h *Hub) sendTo(client *Client, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- data:
		h.metrics.RecordWSMessage(false)
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast serializes a message and queues it for every client.
// It is dropped once the hub has stopped.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Errorf("failed to serialize %s message: %v", msgType, err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// StartStatePusher pushes the player view every interval, followed by any
// journal events appended since the previous push.
func (h *Hub) StartStatePusher(ctx context.Context, interval time.Duration) {
	go func() {
		pushInterval := time.NewTicker(interval)
		defer pushInterval.Stop()

		eventLog := h.engine.EventLog()
		lastSeq := eventLog.LastSeq()

		for {
			select {
			case <-ctx.Done():
				return
			case <-pushInterval.C:
				if h.ClientCount() == 0 {
					lastSeq = eventLog.LastSeq()
					continue
				}
				h.Broadcast(MessageState, h.engine.View())
				for _, event := range eventLog.Since(lastSeq) {
					h.Broadcast(MessageEvent, event)
					lastSeq = event.Seq
				}
			}
		}
	}()
}
