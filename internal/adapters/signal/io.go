package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Response classes the protocol exposes to clients.
const (
	StatusSuccess    = "success"
	StatusNotFound   = "not-found"
	StatusForbidden  = "forbidden"
	StatusBadRequest = "bad-request"
)

type response struct {
	Type   string `json:"type"`
	Cmd    string `json:"cmd"`
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (ctl *CollabController) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *CollabController) readPump(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(user.ID)).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("user", string(user.ID)).Msg("readPump read error")
				return
			}
			ctl.dispatch(ctx, roomID, user, c, data)
		}
	}
}

func (ctl *CollabController) dispatch(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn, data []byte) {
	var cmd struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.respondErr(c, "", core.ErrValidation)
		return
	}

	switch cmd.Type {
	case "start":
		ctl.handleStart(ctx, roomID, user, c)
	case "join":
		ctl.handleJoin(ctx, roomID, user, c)
	case "leave":
		ctl.handleLeave(roomID, user, c)
	case "end":
		ctl.handleEnd(ctx, roomID, user, c)
	case "offer", "answer", "ice-candidate":
		ctl.handleSignal(roomID, user, c, cmd.Type, data)
	case "screen-share-toggle":
		ctl.handleScreenShare(ctx, roomID, user, c, data)
	case "session-info":
		ctl.handleSessionInfo(roomID, c)
	case "draw":
		ctl.handleDraw(ctx, roomID, user, c, data)
	case "clear":
		ctl.handleClear(ctx, roomID, user, c)
	case "permission-toggle":
		ctl.handlePermissionToggle(ctx, roomID, user, c, data)
	case "get-state":
		ctl.handleGetState(ctx, roomID, user, c)
	case "save-snapshot":
		ctl.handleSaveSnapshot(ctx, roomID, user, c, data)
	case "ping":
		ctl.handlePing(c)
	case "whoami":
		ctl.handleWhoAmI(roomID, user, c)
	default:
		log.Warn().Str("module", "signal").Str("type", cmd.Type).Msg("unknown command")
		ctl.respondErr(c, cmd.Type, core.ErrValidation)
	}
}

func (ctl *CollabController) respond(c *wsConn, cmd string, data any) {
	ctl.sendJSON(c, response{Type: "response", Cmd: cmd, Status: StatusSuccess, Data: data})
}

// respondErr maps the core taxonomy onto the wire response classes.
func (ctl *CollabController) respondErr(c *wsConn, cmd string, err error) {
	status := StatusBadRequest
	switch {
	case errors.Is(err, core.ErrForbidden):
		status = StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		status = StatusNotFound
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrConflict):
		status = StatusBadRequest
	default:
		log.Error().Err(err).Str("module", "signal").Str("cmd", cmd).Msg("command failed")
	}
	ctl.sendJSON(c, response{Type: "response", Cmd: cmd, Status: status, Error: err.Error()})
}

func (ctl *CollabController) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
