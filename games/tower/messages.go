/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

// Messages coming from clients
type ClientMessage struct {
	Type    string `json:"type"`              // "join", "act", "share", "chat"
	Room    string `json:"room"`              // all
	Block   *int   `json:"block,omitempty"`   // act
	Content string `json:"content,omitempty"` // act (optional) / share
	Sender  string `json:"sender,omitempty"`  // chat
	Text    string `json:"text,omitempty"`    // chat
}

// SlotAssignedMessage tells a connection which side it plays; Spectator
// (-1) when both slots were already taken.
type SlotAssignedMessage struct {
	Type string `json:"type"` // "slot_assigned"
	Slot Slot   `json:"slot"`
}

type CurrentTurnMessage struct {
	Type string `json:"type"` // "current_turn"
	Turn Slot   `json:"turn"`
}

// SimpleMessage is for notifications that carry only text ("not_your_turn").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ActedMessage is the authoritative outcome of an accepted action.
type ActedMessage struct {
	Type    string `json:"type"`              // "acted"
	Block   int    `json:"block"`             // block the actor removed
	Turn    Slot   `json:"turn"`              // slot that acts next
	Content string `json:"content,omitempty"` // question shown alongside, if any
}

// ContentSharedMessage names the slot whose set should gain Content.
type ContentSharedMessage struct {
	Type    string `json:"type"` // "content_shared"
	Content string `json:"content"`
	ForSlot Slot   `json:"for_slot"`
}

type ChatMessage struct {
	Type   string `json:"type"` // "chat"
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
