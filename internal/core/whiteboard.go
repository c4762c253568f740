package core

import (
	"encoding/json"
	"time"

	"github.com/edulive/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// BoardView is what a (late) joiner needs to render the board: the
// actions since the latest clear, including the clear marker itself so
// replay knows where to stop, plus the caller's own draw permission.
type BoardView struct {
	Actions []domain.WhiteboardAction `json:"actions"`
	CanDraw bool                      `json:"can_draw"`
}

// AppendAction appends a draw action with the room's next sequence
// number. Seq is monotonic and survives clears, a reused seq would
// break client-side replay ordering. The permission check happens
// under the same lock acquisition as the append, so a revocation that
// lands first is always honored.
func (r *Room) AppendAction(u *domain.User, payload json.RawMessage, now time.Time) (domain.WhiteboardAction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if allowed, ok := r.perms[u.ID]; ok && !allowed {
		return domain.WhiteboardAction{}, false
	}
	r.seq++
	a := domain.WhiteboardAction{
		Seq:      r.seq,
		RoomID:   r.id,
		UserID:   u.ID,
		UserName: u.DisplayName,
		Kind:     domain.ActionDraw,
		Payload:  payload,
		At:       now,
	}
	r.actions = append(r.actions, a)
	return a, true
}

// ClearBoard appends a clear marker and moves the visible window past
// all earlier actions. The log itself stays append-only.
func (r *Room) ClearBoard(u *domain.User, now time.Time) domain.WhiteboardAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a := domain.WhiteboardAction{
		Seq:      r.seq,
		RoomID:   r.id,
		UserID:   u.ID,
		UserName: u.DisplayName,
		Kind:     domain.ActionClear,
		At:       now,
	}
	r.actions = append(r.actions, a)
	r.clearIdx = len(r.actions) - 1
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("user", string(u.ID)).Uint64("seq", a.Seq).Msg("board cleared")
	return a
}

// SetDrawPermission records the per-user gate. Absent entries mean
// allowed, so granting simply deletes the override.
func (r *Room) SetDrawPermission(target domain.UserID, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if allowed {
		delete(r.perms, target)
		return
	}
	r.perms[target] = false
}

// DrawPermission is a pure read of the permission map, default true.
func (r *Room) DrawPermission(uid domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed, ok := r.perms[uid]
	return !ok || allowed
}

// Board returns the visible action window for the given user.
func (r *Room) Board(uid domain.UserID) BoardView {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := 0
	if r.clearIdx >= 0 {
		start = r.clearIdx
	}
	view := BoardView{
		Actions: make([]domain.WhiteboardAction, len(r.actions)-start),
		CanDraw: true,
	}
	copy(view.Actions, r.actions[start:])
	if allowed, ok := r.perms[uid]; ok {
		view.CanDraw = allowed
	}
	return view
}

// AddSnapshot archives an immutable snapshot in memory and returns the
// stored copy. Durable persistence is the caller's concern and must
// not happen under this lock.
func (r *Room) AddSnapshot(snap domain.Snapshot) domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archive = append(r.archive, snap)
	return snap
}

func (r *Room) Snapshots() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Snapshot, len(r.archive))
	copy(out, r.archive)
	return out
}
