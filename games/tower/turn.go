/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

// Turn reports which slot may act next. Reading it never changes state.
func (r *Room) Turn() Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.turn
}

// flipLocked is the only turn transition.
func (r *Room) flipLocked() Slot {
	r.turn = 1 - r.turn

	return r.turn
}

// Act removes block on behalf of connID if, and only if, connID holds the
// slot whose turn it is. On success the turn flips and every attached
// connection, the actor included, receives an ActedMessage carrying the new
// turn. On failure nothing changes and ErrNotYourTurn is returned alongside
// the unchanged turn.
func (r *Room) Act(connID string, block int, content string) (Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.slotOfLocked(connID)
	if slot == Spectator || slot != r.turn {
		return r.turn, ErrNotYourTurn
	}

	next := r.flipLocked()

	r.broadcastLocked(ActedMessage{
		Type:    "acted",
		Block:   block,
		Turn:    next,
		Content: content,
	})

	return next, nil
}
