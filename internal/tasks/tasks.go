// Package tasks defines the asynq task types the collaboration layer
// enqueues and the client-side wrapper around them.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/edulive/classroom/internal/domain"
)

const TypeSnapshotPersist = "snapshot:persist"

// SnapshotPersistPayload carries one snapshot to the worker.
type SnapshotPersistPayload struct {
	Snapshot domain.Snapshot `json:"snapshot"`
}

func NewSnapshotPersistTask(snap domain.Snapshot) (*asynq.Task, error) {
	payload, err := json.Marshal(SnapshotPersistPayload{Snapshot: snap})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot payload: %w", err)
	}
	return asynq.NewTask(TypeSnapshotPersist, payload, asynq.MaxRetry(5)), nil
}

// Queue implements core.SnapshotQueue over an asynq client. Enqueue is
// a single redis round trip, the blocking database write stays on the
// worker side.
type Queue struct {
	client *asynq.Client
}

func NewQueue(client *asynq.Client) *Queue {
	if client == nil {
		panic("asynq client cannot be nil for Queue")
	}
	return &Queue{client: client}
}

func (q *Queue) EnqueuePersist(ctx context.Context, snap domain.Snapshot) error {
	task, err := NewSnapshotPersistTask(snap)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeSnapshotPersist, err)
	}
	return nil
}
