package core

import (
	"context"

	"github.com/edulive/classroom/internal/domain"
)

// Event is one outbound message for connected clients. The adapter
// owns serialization and framing.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// MessageRouter delivers events to connected clients. Implemented by
// the transport adapter; the core never blocks on delivery.
type MessageRouter interface {
	BroadcastRoom(roomID domain.RoomID, ev Event)
	Unicast(userID domain.UserID, ev Event)
}

// CourseDirectory resolves course identity and enrollment from the
// platform's relational store. Read-only from this layer's view.
type CourseDirectory interface {
	Course(ctx context.Context, id domain.CourseID) (*domain.Course, error)
	IsEnrolled(ctx context.Context, courseID domain.CourseID, userID domain.UserID) (bool, error)
}

// SnapshotStore persists whiteboard snapshots durably. Writes happen
// outside room critical sections, on the worker side.
type SnapshotStore interface {
	Save(ctx context.Context, snap *domain.Snapshot) error
	Latest(ctx context.Context, roomID domain.RoomID) (*domain.Snapshot, error)
	ListByRoom(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.Snapshot, error)
}

// SnapshotQueue hands a snapshot off for durable persistence so the
// blocking write never runs on the command path.
type SnapshotQueue interface {
	EnqueuePersist(ctx context.Context, snap domain.Snapshot) error
}
