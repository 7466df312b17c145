package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client action types.
const (
	ActionRegister   = "REGISTER"
	ActionTap        = "TAP"
	ActionBuyUpgrade = "BUY_UPGRADE"
	ActionBuySkin    = "BUY_SKIN"
	ActionEquipSkin  = "EQUIP_SKIN"
)

var errRateLimited = errors.New("rate limit exceeded")

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type actionPayload struct {
	Username string  `json:"username"`
	Cost     float64 `json:"cost"`
	ID       string  `json:"id"`
}

// ActionResult answers a single PlayerAction.
type ActionResult struct {
	Action string      `json:"action"`
	OK     bool        `json:"ok"`
	Error  string      `json:"error,omitempty"`
	State  interface{} `json:"state,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Local single-player server; any origin may connect
	},
}

// Client is one WebSocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.opts.SendBuffer),
	}
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.opts.MaxClients > 0 && h.ClientCount() >= h.opts.MaxClients {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("failed to upgrade websocket connection: %v", err)
		h.metrics.RecordWSError()
		return
	}

	client := NewClient(h, conn)

	// Initial snapshot so the client can render before the first push.
	// Queued before joining; nothing else can write to send yet.
	if data, err := json.Marshal(Message{Type: MessageState, Payload: h.engine.View()}); err == nil {
		client.send <- data
	}

	if !h.join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// ReadPump pumps actions from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warnf("websocket read error from %s: %v", c.id, err)
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.reply(c, MessageActionResult, ActionResult{Error: "malformed action"})
			continue
		}
		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	result := ActionResult{Action: action.Type}

	err := c.allow(time.Now())
	if err == nil {
		err = c.dispatch(action)
	}
	if err != nil {
		result.Error = err.Error()
	} else {
		result.OK = true
		result.State = c.hub.engine.View()
	}
	c.hub.reply(c, MessageActionResult, result)
}

func (c *Client) dispatch(action PlayerAction) error {
	var p actionPayload
	if len(action.Payload) > 0 {
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return errors.New("malformed payload")
		}
	}

	eng := c.hub.engine
	switch action.Type {
	case ActionRegister:
		return eng.RegisterUser(p.Username)
	case ActionTap:
		if p.Cost == 0 {
			p.Cost = 1
		}
		return eng.Tap(p.Cost)
	case ActionBuyUpgrade:
		return eng.BuyUpgrade(p.ID)
	case ActionBuySkin:
		return eng.BuySkin(p.ID)
	case ActionEquipSkin:
		return eng.EquipSkin(p.ID)
	default:
		return errors.New("unknown action " + action.Type)
	}
}

// allow applies a fixed one-second window limit.
func (c *Client) allow(now time.Time) error {
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	if c.windowCount > c.hub.opts.MaxMessagesPerSecond {
		return errRateLimited
	}
	return nil
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) reply(c *Client, msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.Errorf("failed to serialize %s message: %v", msgType, err)
		return
	}
	if !h.sendTo(c, data) {
		h.metrics.RecordWSError()
	}
}
