package app

import (
	"context"
	"fmt"
	"time"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Event types emitted by the conference manager.
const (
	EvSessionStarted = "session-started"
	EvSessionEnded   = "session-ended"
	EvUserJoined     = "user-joined"
	EvUserLeft       = "user-left"
	EvScreenShare    = "screen-share"
	EvSignal         = "signal"
)

// StartResult reports whether the call created the session or found an
// already active one.
type StartResult struct {
	Session domain.Session `json:"session"`
	Created bool           `json:"created"`
}

type JoinResult struct {
	ParticipantCount int                `json:"participant_count"`
	Participant      domain.Participant `json:"participant"`
}

// ConferenceManager owns the video session lifecycle of every room:
// start/end, participant tracking, signaling relay and the presenter
// slot. Events go out through the router after room state settles, a
// slow client can never hold a room lock.
type ConferenceManager struct {
	reg    *Registry
	gate   *AccessGate
	router core.MessageRouter
}

func NewConferenceManager(reg *Registry, gate *AccessGate, router core.MessageRouter) *ConferenceManager {
	return &ConferenceManager{reg: reg, gate: gate, router: router}
}

// Start activates the room's video session. Idempotent: a second start
// returns the existing session instead of erroring or double-creating.
func (m *ConferenceManager) Start(ctx context.Context, roomID domain.RoomID, u *domain.User) (StartResult, error) {
	if err := m.gate.Authorize(ctx, u, roomID, LevelPrivileged); err != nil {
		return StartResult{}, err
	}
	room := m.reg.GetOrCreate(roomID)
	sess, created := room.StartSession(u, time.Now())
	if created {
		m.router.BroadcastRoom(roomID, core.Event{Type: EvSessionStarted, Data: sess})
	}
	return StartResult{Session: sess, Created: created}, nil
}

// Join adds the user to the active session. Duplicate joins leave the
// participant set unchanged.
func (m *ConferenceManager) Join(ctx context.Context, roomID domain.RoomID, u *domain.User) (JoinResult, error) {
	if err := m.gate.Authorize(ctx, u, roomID, LevelMember); err != nil {
		return JoinResult{}, err
	}
	room, ok := m.reg.Get(roomID)
	if !ok {
		return JoinResult{}, fmt.Errorf("no active session for room %s: %w", roomID, core.ErrNotFound)
	}
	count, p, joined, err := room.JoinSession(u, time.Now())
	if err != nil {
		return JoinResult{}, fmt.Errorf("join room %s: %w", roomID, err)
	}
	if joined {
		m.router.BroadcastRoom(roomID, core.Event{Type: EvUserJoined, Data: p})
	}
	return JoinResult{ParticipantCount: count, Participant: p}, nil
}

// Leave removes the user if present. A leave from someone who never
// joined is a no-op, the transport may deliver duplicates.
func (m *ConferenceManager) Leave(roomID domain.RoomID, u *domain.User) {
	room, ok := m.reg.Get(roomID)
	if !ok {
		return
	}
	left, count := room.LeaveSession(u.ID)
	if left {
		m.router.BroadcastRoom(roomID, core.Event{Type: EvUserLeft, Data: map[string]any{
			"user_id":           u.ID,
			"participant_count": count,
		}})
	}
}

// End tears down the session. Remaining participants learn about it
// only through the broadcast.
func (m *ConferenceManager) End(ctx context.Context, roomID domain.RoomID, u *domain.User) error {
	if err := m.gate.Authorize(ctx, u, roomID, LevelPrivileged); err != nil {
		return err
	}
	room, ok := m.reg.Get(roomID)
	if !ok {
		return fmt.Errorf("no active session for room %s: %w", roomID, core.ErrNotFound)
	}
	ended, ok := room.EndSession(time.Now())
	if !ok {
		return fmt.Errorf("no active session for room %s: %w", roomID, core.ErrNotFound)
	}
	m.router.BroadcastRoom(roomID, core.Event{Type: EvSessionEnded, Data: ended})
	return nil
}

// RelaySignal routes one negotiation envelope point-to-point to its
// target, never broadcast. When sender or target is not currently a
// participant the envelope is dropped without error: negotiation
// racing against join/leave is expected.
func (m *ConferenceManager) RelaySignal(roomID domain.RoomID, u *domain.User, env domain.SignalingEnvelope) error {
	switch env.Kind {
	case domain.SignalOffer, domain.SignalAnswer, domain.SignalICECandidate:
	default:
		return fmt.Errorf("unknown signal kind %q: %w", env.Kind, core.ErrValidation)
	}
	if env.TargetID == "" {
		return fmt.Errorf("signal without target: %w", core.ErrValidation)
	}
	env.RoomID = roomID
	env.SenderID = u.ID

	room, ok := m.reg.Get(roomID)
	if !ok {
		return nil
	}
	if !room.IsParticipant(env.SenderID) || !room.IsParticipant(env.TargetID) {
		log.Debug().Str("module", "app.conference").Str("room", string(roomID)).
			Str("sender", string(env.SenderID)).Str("target", string(env.TargetID)).
			Str("kind", string(env.Kind)).Msg("signal dropped, not a participant")
		return nil
	}
	m.router.Unicast(env.TargetID, core.Event{Type: EvSignal, Data: env})
	return nil
}

// ToggleScreenShare arbitrates the single presenter slot, last toggle
// wins.
func (m *ConferenceManager) ToggleScreenShare(ctx context.Context, roomID domain.RoomID, u *domain.User, sharing bool) (domain.ScreenShare, error) {
	if err := m.gate.Authorize(ctx, u, roomID, LevelPrivileged); err != nil {
		return domain.ScreenShare{}, err
	}
	room, ok := m.reg.Get(roomID)
	if !ok {
		return domain.ScreenShare{}, fmt.Errorf("no active session for room %s: %w", roomID, core.ErrNotFound)
	}
	share, active := room.SetScreenShare(u.ID, sharing)
	if !active {
		return domain.ScreenShare{}, fmt.Errorf("no active session for room %s: %w", roomID, core.ErrNotFound)
	}
	m.router.BroadcastRoom(roomID, core.Event{Type: EvScreenShare, Data: share})
	return share, nil
}

// IsParticipant reports whether the user currently sits in the room's
// active session, false for unknown rooms.
func (m *ConferenceManager) IsParticipant(roomID domain.RoomID, uid domain.UserID) bool {
	room, ok := m.reg.Get(roomID)
	if !ok {
		return false
	}
	return room.IsParticipant(uid)
}

// Info is the read-only session view, active:false for unknown rooms.
func (m *ConferenceManager) Info(roomID domain.RoomID) core.ConferenceInfo {
	room, ok := m.reg.Get(roomID)
	if !ok {
		return core.ConferenceInfo{Active: false}
	}
	return room.Info()
}
