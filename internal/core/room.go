package core

import (
	"sync"

	"github.com/edulive/classroom/internal/domain"
)

// Room is the threadsafe in-memory state of one course's live
// collaboration: conference session plus whiteboard. Rooms are
// independent; each carries its own lock so unrelated rooms never
// serialize on each other. All mutations are plain map and slice
// updates, nothing under the lock blocks.
type Room struct {
	id domain.RoomID

	mu           sync.Mutex
	session      *domain.Session
	participants map[domain.UserID]*domain.Participant
	share        domain.ScreenShare

	seq      uint64
	actions  []domain.WhiteboardAction
	clearIdx int // index into actions of the latest clear marker, -1 when none
	perms    map[domain.UserID]bool
	archive  []domain.Snapshot
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:           id,
		participants: make(map[domain.UserID]*domain.Participant),
		clearIdx:     -1,
		perms:        make(map[domain.UserID]bool),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }
