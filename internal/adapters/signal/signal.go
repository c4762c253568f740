package signal

import (
	"context"
	"errors"
	"net/http"

	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Presence mirrors room occupancy into a shared counter so other
// platform services can read it without touching this process.
type Presence interface {
	Incr(ctx context.Context, roomID domain.RoomID)
	Decr(ctx context.Context, roomID domain.RoomID)
}

// CollabController terminates the websocket protocol: it parses
// command verbs, calls the managers and writes response frames. All
// collaboration semantics live behind the managers.
type CollabController struct {
	Gate     *app.AccessGate
	Conf     *app.ConferenceManager
	Board    *app.WhiteboardManager
	Router   *ConnRouter
	Presence Presence
}

func NewCollabController(gate *app.AccessGate, conf *app.ConferenceManager, board *app.WhiteboardManager, router *ConnRouter, presence Presence) *CollabController {
	return &CollabController{Gate: gate, Conf: conf, Board: board, Router: router, Presence: presence}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleCollab upgrades one authenticated client onto a room's
// collaboration channel. Identity was resolved by the auth middleware;
// a connection is scoped to exactly one room.
func (ctl *CollabController) HandleCollab(ctx context.Context, c *gin.Context) {
	v, _ := c.Get("user")
	user, ok := v.(*domain.User)
	if !ok || user == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	roomID := domain.RoomID(c.Param("roomID"))
	if roomID == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	// Registering a connection subscribes it to every room broadcast,
	// so membership is checked before the upgrade, not per command.
	if err := ctl.Gate.Authorize(ctx, user, roomID, app.LevelMember); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", string(roomID)).Str("user", string(user.ID)).Msg("WS connection rejected")
		switch {
		case errors.Is(err, core.ErrNotFound):
			c.AbortWithStatus(http.StatusNotFound)
		case errors.Is(err, core.ErrForbidden):
			c.AbortWithStatus(http.StatusForbidden)
		default:
			c.AbortWithStatus(http.StatusInternalServerError)
		}
		return
	}
	log.Info().Str("module", "signal").Str("room", string(roomID)).Str("user", string(user.ID)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWSConn(ws)
	ctl.Router.Register(roomID, user.ID, conn)
	if ctl.Presence != nil {
		ctl.Presence.Incr(ctx, roomID)
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, roomID, user, conn)
		ctl.Router.Unregister(roomID, user.ID, conn)
		if ctl.Presence != nil {
			ctl.Presence.Decr(context.WithoutCancel(ctx), roomID)
		}
		// A dropped socket counts as a leave; leave tolerates users
		// who never joined.
		ctl.Conf.Leave(roomID, user)
	}()
}
