package domain

import "time"

type SessionKind string

const (
	SessionKindVideo      SessionKind = "video"
	SessionKindWhiteboard SessionKind = "whiteboard"
)

type SessionState string

const (
	SessionInactive SessionState = "inactive"
	SessionActive   SessionState = "active"
	SessionEnded    SessionState = "ended"
)

// Session is a live per-room conference. At most one active video
// session exists per room; the registry owns the lifecycle.
type Session struct {
	RoomID    RoomID       `json:"room_id"`
	Kind      SessionKind  `json:"kind"`
	State     SessionState `json:"state"`
	OwnerID   UserID       `json:"owner_id"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   time.Time    `json:"ended_at,omitempty"`
}

// Participant is a user's membership in one session, unique per user.
type Participant struct {
	UserID      UserID    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"-"`
	JoinedAt    time.Time `json:"joined_at"`
}

func NewParticipant(u *User, now time.Time) *Participant {
	return &Participant{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		JoinedAt:    now,
	}
}

// ScreenShare tracks the single presenter slot of a video session.
type ScreenShare struct {
	Active      bool   `json:"active"`
	PresenterID UserID `json:"presenter_id,omitempty"`
}
