package signal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

func (ctl *CollabController) handleDraw(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn, data []byte) {
	var p struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.respondErr(c, "draw", fmt.Errorf("malformed draw: %w", core.ErrValidation))
		return
	}
	a, err := ctl.Board.RecordAction(ctx, roomID, user, p.Payload)
	if err != nil {
		ctl.respondErr(c, "draw", err)
		return
	}
	ctl.respond(c, "draw", a)
}

func (ctl *CollabController) handleClear(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn) {
	marker, err := ctl.Board.Clear(ctx, roomID, user)
	if err != nil {
		ctl.respondErr(c, "clear", err)
		return
	}
	ctl.respond(c, "clear", marker)
}

func (ctl *CollabController) handlePermissionToggle(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn, data []byte) {
	var p struct {
		Type     string        `json:"type"`
		TargetID domain.UserID `json:"target_id"`
		Allowed  bool          `json:"allowed"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.respondErr(c, "permission-toggle", fmt.Errorf("malformed toggle: %w", core.ErrValidation))
		return
	}
	if err := ctl.Board.SetDrawPermission(ctx, roomID, user, p.TargetID, p.Allowed); err != nil {
		ctl.respondErr(c, "permission-toggle", err)
		return
	}
	ctl.respond(c, "permission-toggle", nil)
}

func (ctl *CollabController) handleGetState(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn) {
	view, err := ctl.Board.GetState(ctx, roomID, user)
	if err != nil {
		ctl.respondErr(c, "get-state", err)
		return
	}
	ctl.respond(c, "get-state", view)
}

func (ctl *CollabController) handleSaveSnapshot(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Title string `json:"title"`
		Data  string `json:"data"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.respondErr(c, "save-snapshot", fmt.Errorf("malformed snapshot: %w", core.ErrValidation))
		return
	}
	snap, err := ctl.Board.SaveSnapshot(ctx, roomID, user, p.Title, p.Data)
	if err != nil {
		ctl.respondErr(c, "save-snapshot", err)
		return
	}
	ctl.respond(c, "save-snapshot", snap)
}
