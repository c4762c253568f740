package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/tasks"
)

// SnapshotPersistHandler writes queued snapshots to durable storage.
// Returning an error lets asynq retry with backoff.
type SnapshotPersistHandler struct {
	store core.SnapshotStore
}

func NewSnapshotPersistHandler(store core.SnapshotStore) *SnapshotPersistHandler {
	if store == nil {
		panic("snapshot store cannot be nil for SnapshotPersistHandler")
	}
	return &SnapshotPersistHandler{store: store}
}

func (h *SnapshotPersistHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.SnapshotPersistPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads never succeed, skip retries.
		return fmt.Errorf("unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	snap := payload.Snapshot
	if err := h.store.Save(ctx, &snap); err != nil {
		return fmt.Errorf("persist snapshot for room %s: %w", snap.RoomID, err)
	}
	log.Info().Str("module", "worker").Str("room", string(snap.RoomID)).Str("title", snap.Title).Msg("snapshot persisted")
	return nil
}
