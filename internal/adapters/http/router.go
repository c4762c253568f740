package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/edulive/classroom/internal/adapters/signal"
	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/config"
	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// PresenceCounter reads the advisory per-room connection counter.
type PresenceCounter interface {
	Count(ctx context.Context, roomID domain.RoomID) int64
}

// Deps is everything the router wires into handlers.
type Deps struct {
	Collab    *signal.CollabController
	Registry  *app.Registry
	Gate      *app.AccessGate
	Snapshots core.SnapshotStore
	Presence  PresenceCounter
	Redis     *redis.Client
}

// roomListing is one row of the admin room overview: live session
// state plus the advisory socket count mirrored in redis.
type roomListing struct {
	app.RoomInfo
	ConnectionCount int64 `json:"connection_count"`
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, _ := c.Get("user")
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// requireAccess runs the gate and writes the HTTP error itself; a
// false return means the handler must stop.
func requireAccess(c *gin.Context, gate *app.AccessGate, roomID domain.RoomID, level app.Level) bool {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return false
	}
	if err := gate.Authorize(c.Request.Context(), user, roomID, level); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown room"})
		case errors.Is(err, core.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("authorize")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
		}
		return false
	}
	return true
}

func requireAdmin(c *gin.Context) (*domain.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return nil, false
	}
	if user.Role != domain.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return nil, false
	}
	return user, true
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ClassroomSessions", store))
	r.Use(ClientTokenMiddleware())
	if deps.Redis != nil {
		r.Use(RateLimit(deps.Redis, cfg.RateLimit, cfg.RateWindow))
	}

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")
	api.Use(Auth(cfg.JWTSecret))

	api.GET("/ws/collab/:roomID", func(c *gin.Context) {
		deps.Collab.HandleCollab(ctx, c)
	})

	// Cross-room enumeration is a platform operator view.
	api.GET("/rooms", func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		rooms := deps.Registry.List()
		out := make([]roomListing, 0, len(rooms))
		for _, info := range rooms {
			row := roomListing{RoomInfo: info}
			if deps.Presence != nil {
				row.ConnectionCount = deps.Presence.Count(c.Request.Context(), info.ID)
			}
			out = append(out, row)
		}
		c.JSON(http.StatusOK, out)
	})

	api.DELETE("/rooms/:roomID", func(c *gin.Context) {
		user, ok := requireAdmin(c)
		if !ok {
			return
		}
		roomID := domain.RoomID(c.Param("roomID"))
		deps.Registry.Drop(roomID)
		log.Info().Str("module", "adapters.http").Str("room", string(roomID)).Str("user", string(user.ID)).Msg("room dropped by admin")
		c.Status(http.StatusNoContent)
	})

	api.GET("/rooms/:roomID/snapshots", func(c *gin.Context) {
		roomID := domain.RoomID(c.Param("roomID"))
		if !requireAccess(c, deps.Gate, roomID, app.LevelMember) {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		snaps, err := deps.Snapshots.ListByRoom(c.Request.Context(), roomID, limit)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("list snapshots")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
			return
		}
		c.JSON(http.StatusOK, snaps)
	})

	api.GET("/rooms/:roomID/snapshots/latest", func(c *gin.Context) {
		roomID := domain.RoomID(c.Param("roomID"))
		if !requireAccess(c, deps.Gate, roomID, app.LevelMember) {
			return
		}
		snap, err := deps.Snapshots.Latest(c.Request.Context(), roomID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				// The durable row may still be in flight on the queue;
				// the room's in-memory archive is ahead of the store.
				if room, ok := deps.Registry.Get(roomID); ok {
					if archived := room.Snapshots(); len(archived) > 0 {
						c.JSON(http.StatusOK, archived[len(archived)-1])
						return
					}
				}
				c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("latest snapshot")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	return r
}
