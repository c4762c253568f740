package domain

import (
	"encoding/json"
	"time"
)

type ActionKind string

const (
	ActionDraw  ActionKind = "draw"
	ActionClear ActionKind = "clear"
)

// WhiteboardAction is one entry of a room's append-only action log.
// Seq is assigned by the registry, strictly increasing per room and
// never reused, not even across a clear.
type WhiteboardAction struct {
	Seq      uint64          `json:"seq"`
	RoomID   RoomID          `json:"room_id"`
	UserID   UserID          `json:"user_id"`
	UserName string          `json:"user_name"`
	Kind     ActionKind      `json:"kind"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	At       time.Time       `json:"at"`
}

// Snapshot is an immutable whiteboard archive entry. The in-memory
// copy is the source for broadcast; durable storage happens async.
type Snapshot struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	RoomID  RoomID    `json:"room_id" gorm:"index;size:64;not null"`
	Title   string    `json:"title" gorm:"size:255;not null"`
	Data    string    `json:"data" gorm:"type:longtext;not null"`
	SavedBy UserID    `json:"saved_by" gorm:"size:64;not null"`
	SavedAt time.Time `json:"saved_at" gorm:"not null"`
}
