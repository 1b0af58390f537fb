/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

// Participant is the display metadata registered for one side of a room.
// Questions are opaque strings; the room only ever appends to them.
type Participant struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

func (p *Participant) clone() *Participant {
	if p == nil {
		return nil
	}

	questions := make([]string, len(p.Questions))
	copy(questions, p.Questions)

	return &Participant{
		Name:      p.Name,
		Questions: questions,
	}
}

// Register stores p as the metadata of the first free participant position.
// It returns ErrRoomFull once both positions are taken.
func (r *Room) Register(p Participant) (Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.participants {
		if r.participants[i] == nil {
			r.participants[i] = p.clone()

			return Slot(i), nil
		}
	}

	return Spectator, ErrRoomFull
}

// Participants returns copies of both sides' metadata; nil where unset.
func (r *Room) Participants() [maxSlots]*Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out [maxSlots]*Participant
	for i, p := range r.participants {
		out[i] = p.clone()
	}

	return out
}
