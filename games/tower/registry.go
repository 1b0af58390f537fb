/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry holds every live room keyed by code. Rooms are reaped purely by
// age: once a room is older than ttl the next sweep removes it, whether or
// not anyone is still playing.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	ttl     time.Duration
	now     func() time.Time
	metrics *Metrics
	logger  *zap.Logger
}

func NewRegistry(ttl time.Duration, metrics *Metrics, logger *zap.Logger) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
		logger:  logger.Named("registry"),
	}
}

// GetOrCreate returns the room registered under code, creating it if absent.
// Concurrent callers racing on a new code all receive the same *Room.
func (reg *Registry) GetOrCreate(code string) *Room {
	reg.mu.RLock()
	room, ok := reg.rooms[code]
	reg.mu.RUnlock()
	if ok {
		return room
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, ok := reg.rooms[code]; ok {
		return room
	}

	return reg.insertLocked(code)
}

func (reg *Registry) insertLocked(code string) *Room {
	room := newRoom(code, reg.now())
	reg.rooms[code] = room

	reg.metrics.roomsCreated.Inc()
	reg.metrics.roomsActive.Set(float64(len(reg.rooms)))

	reg.logger.Debug("room created", zap.String("room", code))

	return room
}

// Create registers a room under a fresh random code with host as its first
// participant.
func (reg *Registry) Create(host Participant) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		c, err := newCode()
		if err != nil {
			return nil, err
		}

		if _, exists := reg.rooms[c]; !exists {
			code = c
			break
		}
	}

	room := reg.insertLocked(code)

	if _, err := room.Register(host); err != nil {
		return nil, err
	}

	return room, nil
}

// Register attaches p to the room under code as its next participant.
func (reg *Registry) Register(code string, p Participant) (*Room, error) {
	room, ok := reg.Lookup(code)
	if !ok {
		return nil, ErrRoomNotFound
	}

	if _, err := room.Register(p); err != nil {
		return nil, err
	}

	return room, nil
}

func (reg *Registry) Lookup(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[code]

	return room, ok
}

func (reg *Registry) Delete(code string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.rooms[code]; !ok {
		return false
	}

	delete(reg.rooms, code)
	reg.metrics.roomsActive.Set(float64(len(reg.rooms)))

	return true
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}

// Sweep removes every room created more than ttl before now and returns
// their codes. Attached connections are not notified.
func (reg *Registry) Sweep(now time.Time) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var expired []string
	for code, room := range reg.rooms {
		if now.Sub(room.createdAt) > reg.ttl {
			delete(reg.rooms, code)
			expired = append(expired, code)
		}
	}

	if len(expired) > 0 {
		reg.metrics.roomsExpired.Add(float64(len(expired)))
		reg.metrics.roomsActive.Set(float64(len(reg.rooms)))

		reg.logger.Info("rooms expired",
			zap.Strings("rooms", expired),
			zap.Int("remaining", len(reg.rooms)),
		)
	}

	return expired
}

// Run sweeps every interval until ctx is done.
func (reg *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Sweep(reg.now())
		}
	}
}

// newCode generates a short uppercase room code using crypto/rand.
func newCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	out := make([]byte, codeLength)
	for i := range out {
		out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}

	return string(out), nil
}
