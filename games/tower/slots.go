/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

// Slot is the side a connection plays within a room.
type Slot int

const (
	// Spectator is returned for connections that hold no slot. Spectators
	// receive room broadcasts but may never act.
	Spectator Slot = -1

	First  Slot = 0
	Second Slot = 1
)

const maxSlots = 2

// Assign returns the slot held by connID, filling the next free slot in
// arrival order if it holds none. Once both slots are taken every other
// connection is a Spectator.
func (r *Room) Assign(connID string) Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.assignLocked(connID)
}

func (r *Room) assignLocked(connID string) Slot {
	if connID == "" {
		return Spectator
	}

	if s := r.slotOfLocked(connID); s != Spectator {
		return s
	}

	if len(r.slots) >= maxSlots {
		return Spectator
	}

	r.slots = append(r.slots, connID)

	return Slot(len(r.slots) - 1)
}

// SlotOf reports the slot held by connID without assigning one.
func (r *Room) SlotOf(connID string) Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.slotOfLocked(connID)
}

func (r *Room) slotOfLocked(connID string) Slot {
	for i, id := range r.slots {
		if id == connID {
			return Slot(i)
		}
	}

	return Spectator
}

// Full reports whether both slots are occupied.
func (r *Room) Full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.slots) == maxSlots
}
