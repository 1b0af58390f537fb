/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 8192

	maxCodeLength    = 32
	maxContentLength = 1024
)

// Gateway accepts websocket connections and routes their requests to rooms
// held by a Registry.
type Gateway struct {
	registry   *Registry
	metrics    *Metrics
	logger     *zap.Logger
	sendBuffer int
	upgrader   websocket.Upgrader
}

func NewGateway(registry *Registry, metrics *Metrics, logger *zap.Logger, sendBuffer int) *Gateway {
	return &Gateway{
		registry:   registry,
		metrics:    metrics,
		logger:     logger.Named("gateway"),
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeWS upgrades the request and serves the connection until it closes.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn, g.sendBuffer)

	g.metrics.connections.Inc()
	g.logger.Debug("connection opened",
		zap.String("conn", client.id),
		zap.String("remote", r.RemoteAddr),
	)

	go client.writePump()
	g.readPump(client)
}

func (g *Gateway) readPump(c *Client) {
	defer g.disconnect(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug("read failed", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			g.drop(c, "undecodable frame")
			continue
		}

		g.Handle(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) disconnect(c *Client) {
	if c.room != nil {
		c.room.Detach(c)
	}
	c.close()

	g.metrics.connections.Dec()
	g.logger.Debug("connection closed", zap.String("conn", c.id))
}

// Handle processes one decoded request from c. Requests are handled to
// completion one at a time per connection.
func (g *Gateway) Handle(c *Client, msg ClientMessage) {
	if !validCode(msg.Room) {
		g.drop(c, "invalid room code")
		return
	}

	switch msg.Type {
	case "join":
		g.join(c, msg)
	case "act":
		g.act(c, msg)
	case "share":
		g.share(c, msg)
	case "chat":
		g.chat(c, msg)
	default:
		g.drop(c, "unknown type")
	}
}

func (g *Gateway) join(c *Client, msg ClientMessage) {
	if c.room != nil && c.room.code != msg.Room {
		g.logger.Debug("join ignored, already attached elsewhere",
			zap.String("conn", c.id),
			zap.String("attached", c.room.code),
			zap.String("room", msg.Room),
		)
		return
	}

	room := g.registry.GetOrCreate(msg.Room)
	if c.room != nil && c.room != room {
		// the previous room under this code expired
		c.room.Detach(c)
	}
	c.room = room

	slot, turn := room.Attach(c)

	g.logger.Info("joined",
		zap.String("room", room.code),
		zap.String("conn", c.id),
		zap.Int("slot", int(slot)),
		zap.Int("turn", int(turn)),
	)
}

func (g *Gateway) act(c *Client, msg ClientMessage) {
	if msg.Block == nil || utf8.RuneCountInString(msg.Content) > maxContentLength {
		g.drop(c, "malformed act")
		return
	}

	room, ok := g.registry.Lookup(msg.Room)
	if !ok {
		g.logger.Debug("act for unknown room", zap.String("room", msg.Room), zap.String("conn", c.id))
		return
	}

	turn, err := room.Act(c.id, *msg.Block, msg.Content)
	if errors.Is(err, ErrNotYourTurn) {
		g.metrics.actions.WithLabelValues("rejected").Inc()

		c.enqueue(SimpleMessage{
			Type:    "not_your_turn",
			Message: "It is not your turn.",
		})

		g.logger.Debug("act rejected",
			zap.String("room", room.code),
			zap.String("conn", c.id),
			zap.Int("turn", int(turn)),
		)
		return
	}

	g.metrics.actions.WithLabelValues("accepted").Inc()
	g.logger.Debug("act accepted",
		zap.String("room", room.code),
		zap.String("conn", c.id),
		zap.Int("block", *msg.Block),
		zap.Int("turn", int(turn)),
	)
}

func (g *Gateway) share(c *Client, msg ClientMessage) {
	n := utf8.RuneCountInString(msg.Content)
	if n == 0 || n > maxContentLength {
		g.drop(c, "malformed share")
		return
	}

	room, ok := g.registry.Lookup(msg.Room)
	if !ok {
		g.logger.Debug("share for unknown room", zap.String("room", msg.Room), zap.String("conn", c.id))
		return
	}

	room.Share(msg.Content)

	g.metrics.contentShared.Inc()
	g.logger.Debug("content shared", zap.String("room", room.code), zap.String("conn", c.id))
}

func (g *Gateway) chat(c *Client, msg ClientMessage) {
	if msg.Text == "" || utf8.RuneCountInString(msg.Text) > maxContentLength || len(msg.Sender) > maxCodeLength*2 {
		g.drop(c, "malformed chat")
		return
	}

	room, ok := g.registry.Lookup(msg.Room)
	if !ok || room != c.room {
		return
	}

	room.Relay(c, msg.Sender, msg.Text)
}

func (g *Gateway) drop(c *Client, reason string) {
	g.metrics.droppedFrames.Inc()
	g.logger.Debug("dropped frame", zap.String("conn", c.id), zap.String("reason", reason))
}

func validCode(code string) bool {
	if code == "" || len(code) > maxCodeLength {
		return false
	}

	for _, r := range code {
		if r <= ' ' || r == 0x7f {
			return false
		}
	}

	return true
}
