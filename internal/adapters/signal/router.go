package signal

import (
	"encoding/json"
	"sync"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConnRouter is the live connection registry and the core's
// MessageRouter. A connection is scoped to one room for broadcast
// while unicast resolves by user id across all rooms. Slow clients
// lose frames instead of stalling delivery to the rest of the room.
type ConnRouter struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]map[domain.UserID]*wsConn
	byUser map[domain.UserID]*wsConn
}

func NewConnRouter() *ConnRouter {
	return &ConnRouter{
		rooms:  make(map[domain.RoomID]map[domain.UserID]*wsConn),
		byUser: make(map[domain.UserID]*wsConn),
	}
}

func (r *ConnRouter) Register(roomID domain.RoomID, uid domain.UserID, c *wsConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byUser[uid]; ok && old != c {
		old.Close()
	}
	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[domain.UserID]*wsConn)
		r.rooms[roomID] = room
	}
	room[uid] = c
	r.byUser[uid] = c
	log.Info().Str("module", "signal.router").Str("room", string(roomID)).Str("user", string(uid)).Msg("connection registered")
}

func (r *ConnRouter) Unregister(roomID domain.RoomID, uid domain.UserID, c *wsConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomID]; ok && room[uid] == c {
		delete(room, uid)
		if len(room) == 0 {
			delete(r.rooms, roomID)
		}
	}
	if r.byUser[uid] == c {
		delete(r.byUser, uid)
	}
	log.Info().Str("module", "signal.router").Str("room", string(roomID)).Str("user", string(uid)).Msg("connection unregistered")
}

func (r *ConnRouter) BroadcastRoom(roomID domain.RoomID, ev core.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.router").Msg("marshal event")
		return
	}
	r.mu.RLock()
	conns := make([]*wsConn, 0, len(r.rooms[roomID]))
	for _, c := range r.rooms[roomID] {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	dropped := 0
	for _, c := range conns {
		if err := c.TrySend(data); err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		log.Warn().Str("module", "signal.router").Str("room", string(roomID)).Str("event", ev.Type).Int("dropped", dropped).Msg("broadcast backpressure")
	}
}

func (r *ConnRouter) Unicast(uid domain.UserID, ev core.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.router").Msg("marshal event")
		return
	}
	r.mu.RLock()
	c, ok := r.byUser[uid]
	r.mu.RUnlock()
	if !ok {
		log.Debug().Str("module", "signal.router").Str("user", string(uid)).Str("event", ev.Type).Msg("unicast target offline")
		return
	}
	if err := c.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "signal.router").Str("user", string(uid)).Str("event", ev.Type).Msg("unicast dropped")
	}
}
