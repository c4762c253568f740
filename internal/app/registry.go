package app

import (
	"sync"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomInfo is the listing view of one live room.
type RoomInfo struct {
	ID               domain.RoomID `json:"id"`
	ParticipantCount int           `json:"participant_count"`
}

// Registry is the sole shared mutable store, mapping room id to live
// session state. The outer lock only guards the map; each room carries
// its own lock, so commands for unrelated rooms never serialize.
// Constructed explicitly and injected, never a package singleton.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*core.Room)}
}

func (r *Registry) GetOrCreate(id domain.RoomID) *core.Room {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok = r.rooms[id]; ok {
		return room
	}
	room = core.NewRoom(id)
	r.rooms[id] = room
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room created")
	return room
}

// Get returns the room without creating it, so read-only paths never
// materialize state for unknown rooms.
func (r *Registry) Get(id domain.RoomID) (*core.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

func (r *Registry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{ID: id, ParticipantCount: room.ParticipantCount()})
	}
	return out
}

func (r *Registry) Drop(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room dropped")
}
