// Package redisstate mirrors live collaboration counters into redis so
// the rest of the platform (dashboards, course pages) can read them
// without reaching into this process.
package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/domain"
)

const presenceTTL = 24 * time.Hour

// Presence keeps a per-room connection counter. Failures are logged
// and swallowed: presence is advisory, never authoritative, the
// in-memory registry owns the truth.
type Presence struct {
	client    *redis.Client
	keyPrefix string
}

func NewPresence(client *redis.Client, keyPrefix string) *Presence {
	if client == nil {
		panic("redis client cannot be nil for Presence")
	}
	if keyPrefix == "" {
		keyPrefix = "collab:"
	}
	return &Presence{client: client, keyPrefix: keyPrefix}
}

func (p *Presence) key(roomID domain.RoomID) string {
	return fmt.Sprintf("%sroom:%s:presence", p.keyPrefix, roomID)
}

func (p *Presence) Incr(ctx context.Context, roomID domain.RoomID) {
	key := p.key(roomID)
	pipe := p.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, presenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("module", "state.redis").Str("room", string(roomID)).Msg("presence incr failed")
	}
}

func (p *Presence) Decr(ctx context.Context, roomID domain.RoomID) {
	key := p.key(roomID)
	n, err := p.client.Decr(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Str("module", "state.redis").Str("room", string(roomID)).Msg("presence decr failed")
		return
	}
	if n <= 0 {
		p.client.Del(ctx, key)
	}
}

// Count reads the advisory counter, 0 when absent or on error.
func (p *Presence) Count(ctx context.Context, roomID domain.RoomID) int64 {
	n, err := p.client.Get(ctx, p.key(roomID)).Int64()
	if err != nil {
		return 0
	}
	return n
}
