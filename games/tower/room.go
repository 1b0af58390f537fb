/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import (
	"sync"
	"time"
)

// Room is one two-sided session. Everything below mu is guarded by it, so
// a turn check, the flip that follows and the broadcast announcing it are
// seen by other connections as a single step.
type Room struct {
	code      string
	createdAt time.Time

	mu           sync.Mutex
	slots        []string // connection IDs in join order
	turn         Slot
	clients      map[*Client]bool
	participants [maxSlots]*Participant
}

func newRoom(code string, createdAt time.Time) *Room {
	return &Room{
		code:      code,
		createdAt: createdAt,
		slots:     make([]string, 0, maxSlots),
		turn:      First,
		clients:   make(map[*Client]bool),
	}
}

func (r *Room) Code() string {
	return r.code
}

// Attach adds c to the set of connections receiving this room's events and
// assigns it a slot. The connection is told its slot and the current turn
// before any later broadcast can reach it.
func (r *Room) Attach(c *Client) (Slot, Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c] = true

	slot := r.assignLocked(c.id)

	r.sendLocked(c, SlotAssignedMessage{
		Type: "slot_assigned",
		Slot: slot,
	})

	r.sendLocked(c, CurrentTurnMessage{
		Type: "current_turn",
		Turn: r.turn,
	})

	return slot, r.turn
}

// Detach stops delivering events to c. Its slot, if any, stays reserved.
func (r *Room) Detach(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, c)
}

// Attached reports how many connections currently receive this room's events.
func (r *Room) Attached() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.clients)
}

// Share adds content to both participants' question sets and relays it to
// the room twice, once tagged for each slot. It ignores the turn entirely.
func (r *Room) Share(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.participants {
		if p != nil {
			p.Questions = append(p.Questions, content)
		}
	}

	r.broadcastLocked(ContentSharedMessage{
		Type:    "content_shared",
		Content: content,
		ForSlot: Second,
	})

	r.broadcastLocked(ContentSharedMessage{
		Type:    "content_shared",
		Content: content,
		ForSlot: First,
	})
}

// Relay forwards a chat line from sender to every other attached connection.
func (r *Room) Relay(sender *Client, name, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.clients[sender] {
		return false
	}

	msg := ChatMessage{
		Type:   "chat",
		Sender: name,
		Text:   text,
	}

	for client := range r.clients {
		if client == sender {
			continue
		}
		r.sendLocked(client, msg)
	}

	return true
}
