package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Event types emitted by the whiteboard manager.
const (
	EvBoardAction     = "board-action"
	EvBoardCleared    = "board-cleared"
	EvBoardPermission = "board-permission"
	EvBoardSnapshot   = "board-snapshot"
)

// WhiteboardManager owns every room's ordered action log, the per-user
// draw permission map and the snapshot archive.
type WhiteboardManager struct {
	reg    *Registry
	gate   *AccessGate
	router core.MessageRouter
	queue  core.SnapshotQueue
}

func NewWhiteboardManager(reg *Registry, gate *AccessGate, router core.MessageRouter, queue core.SnapshotQueue) *WhiteboardManager {
	return &WhiteboardManager{reg: reg, gate: gate, router: router, queue: queue}
}

// RecordAction appends a draw action under the room's next sequence
// number and returns the server-enriched action that was broadcast.
// Requires membership and an unrevoked draw permission.
func (m *WhiteboardManager) RecordAction(ctx context.Context, roomID domain.RoomID, u *domain.User, payload json.RawMessage) (domain.WhiteboardAction, error) {
	if err := m.gate.Authorize(ctx, u, roomID, LevelMember); err != nil {
		return domain.WhiteboardAction{}, err
	}
	if len(payload) == 0 {
		return domain.WhiteboardAction{}, fmt.Errorf("empty draw payload: %w", core.ErrValidation)
	}
	room := m.reg.GetOrCreate(roomID)
	a, allowed := room.AppendAction(u, payload, time.Now())
	if !allowed {
		return domain.WhiteboardAction{}, fmt.Errorf("draw permission revoked for user %s: %w", u.ID, core.ErrForbidden)
	}
	m.router.BroadcastRoom(roomID, core.Event{Type: EvBoardAction, Data: a})
	return a, nil
}

// Clear truncates the visible log without resetting the sequence
// counter. The clear marker stays in the replay window so late joiners
// know where to stop.
func (m *WhiteboardManager) Clear(ctx context.Context, roomID domain.RoomID, u *domain.User) (domain.WhiteboardAction, error) {
	if err := m.gate.Authorize(ctx, u, roomID, LevelPrivileged); err != nil {
		return domain.WhiteboardAction{}, err
	}
	room := m.reg.GetOrCreate(roomID)
	marker := room.ClearBoard(u, time.Now())
	m.router.BroadcastRoom(roomID, core.Event{Type: EvBoardCleared, Data: marker})
	return marker, nil
}

// SetDrawPermission flips the per-user gate for the room.
func (m *WhiteboardManager) SetDrawPermission(ctx context.Context, roomID domain.RoomID, u *domain.User, target domain.UserID, allowed bool) error {
	if err := m.gate.Authorize(ctx, u, roomID, LevelPrivileged); err != nil {
		return err
	}
	if target == "" {
		return fmt.Errorf("permission toggle without target: %w", core.ErrValidation)
	}
	room := m.reg.GetOrCreate(roomID)
	room.SetDrawPermission(target, allowed)
	m.router.BroadcastRoom(roomID, core.Event{Type: EvBoardPermission, Data: map[string]any{
		"user_id": target,
		"allowed": allowed,
	}})
	return nil
}

// HasDrawPermission is a pure read, absent entries default to allowed.
func (m *WhiteboardManager) HasDrawPermission(roomID domain.RoomID, uid domain.UserID) bool {
	room, ok := m.reg.Get(roomID)
	if !ok {
		return true
	}
	return room.DrawPermission(uid)
}

// GetState returns the actions since the last clear plus the caller's
// own draw permission.
func (m *WhiteboardManager) GetState(ctx context.Context, roomID domain.RoomID, u *domain.User) (core.BoardView, error) {
	if err := m.gate.Authorize(ctx, u, roomID, LevelMember); err != nil {
		return core.BoardView{}, err
	}
	room := m.reg.GetOrCreate(roomID)
	return room.Board(u.ID), nil
}

// SaveSnapshot archives the board in memory and hands the durable
// write to the queue. A queue failure is logged, not surfaced: the
// in-memory archive already holds the snapshot and retrying durable
// persistence is the worker's job.
func (m *WhiteboardManager) SaveSnapshot(ctx context.Context, roomID domain.RoomID, u *domain.User, title, data string) (domain.Snapshot, error) {
	if err := m.gate.Authorize(ctx, u, roomID, LevelPrivileged); err != nil {
		return domain.Snapshot{}, err
	}
	if title == "" || data == "" {
		return domain.Snapshot{}, fmt.Errorf("snapshot needs title and data: %w", core.ErrValidation)
	}
	room := m.reg.GetOrCreate(roomID)
	snap := room.AddSnapshot(domain.Snapshot{
		RoomID:  roomID,
		Title:   title,
		Data:    data,
		SavedBy: u.ID,
		SavedAt: time.Now(),
	})
	if m.queue != nil {
		if err := m.queue.EnqueuePersist(ctx, snap); err != nil {
			log.Error().Err(err).Str("module", "app.whiteboard").Str("room", string(roomID)).Msg("enqueue snapshot persist")
		}
	}
	m.router.BroadcastRoom(roomID, core.Event{Type: EvBoardSnapshot, Data: map[string]any{
		"title":    snap.Title,
		"saved_by": snap.SavedBy,
		"saved_at": snap.SavedAt,
	}})
	return snap, nil
}
