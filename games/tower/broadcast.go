/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one persistent connection. Outbound messages are queued on send
// and written by a single goroutine, which keeps per-connection ordering.
type Client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan any
	closed bool

	// room is only touched by the goroutine reading from conn.
	room *Room
}

func newClient(id string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan any, buffer),
	}
}

// enqueue hands msg to the writer without blocking. A client that cannot
// keep up is cut off: its queue is closed and the message is lost.
func (c *Client) enqueue(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.closed = true
		close(c.send)

		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.send)
}

// broadcastLocked delivers msg to every attached connection, at most once.
// Nothing waits for acknowledgement and failed deliveries are not retried.
func (r *Room) broadcastLocked(msg any) {
	for client := range r.clients {
		r.sendLocked(client, msg)
	}
}

func (r *Room) sendLocked(client *Client, msg any) {
	if !client.enqueue(msg) {
		delete(r.clients, client)
	}
}
