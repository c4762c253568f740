package core

import (
	"time"

	"github.com/edulive/classroom/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConferenceInfo is a read-only view of a room's video session.
type ConferenceInfo struct {
	Active       bool                 `json:"active"`
	Session      *domain.Session      `json:"session,omitempty"`
	Participants []domain.Participant `json:"participants,omitempty"`
	ScreenShare  domain.ScreenShare   `json:"screen_share"`
}

// StartSession activates the room's video session. When one is already
// active the existing session is returned and created is false; start
// never double-creates.
func (r *Room) StartSession(owner *domain.User, now time.Time) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil && r.session.State == domain.SessionActive {
		return *r.session, false
	}
	r.session = &domain.Session{
		RoomID:    r.id,
		Kind:      domain.SessionKindVideo,
		State:     domain.SessionActive,
		OwnerID:   owner.ID,
		StartedAt: now,
	}
	r.participants = make(map[domain.UserID]*domain.Participant)
	r.share = domain.ScreenShare{}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("owner", string(owner.ID)).Msg("session started")
	return *r.session, true
}

// JoinSession adds the user to the active session. Joining twice is a
// no-op that reports the unchanged count. Returns ErrNotFound when no
// session is active.
func (r *Room) JoinSession(u *domain.User, now time.Time) (count int, p domain.Participant, joined bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.State != domain.SessionActive {
		return 0, domain.Participant{}, false, ErrNotFound
	}
	if existing, ok := r.participants[u.ID]; ok {
		return len(r.participants), *existing, false, nil
	}
	np := domain.NewParticipant(u, now)
	r.participants[u.ID] = np
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("user", string(u.ID)).Msg("participant joined")
	return len(r.participants), *np, true, nil
}

// LeaveSession removes the user if present. A leave from a user who
// never joined is tolerated, duplicate leave signals are expected.
func (r *Room) LeaveSession(uid domain.UserID) (left bool, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[uid]; !ok {
		return false, len(r.participants)
	}
	delete(r.participants, uid)
	if r.share.Active && r.share.PresenterID == uid {
		r.share = domain.ScreenShare{}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("user", string(uid)).Msg("participant left")
	return true, len(r.participants)
}

// EndSession deactivates and discards the session. Participants learn
// about termination only through the broadcast the caller emits.
func (r *Room) EndSession(now time.Time) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.State != domain.SessionActive {
		return domain.Session{}, false
	}
	ended := *r.session
	ended.State = domain.SessionEnded
	ended.EndedAt = now
	r.session = nil
	r.participants = make(map[domain.UserID]*domain.Participant)
	r.share = domain.ScreenShare{}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Msg("session ended")
	return ended, true
}

func (r *Room) IsParticipant(uid domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[uid]
	return ok
}

func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// SetScreenShare applies a presenter toggle. Last toggle wins: a new
// presenter request preempts any existing presenter, and a stop from
// the current presenter frees the slot. The second return is false
// when no video session is active.
func (r *Room) SetScreenShare(uid domain.UserID, sharing bool) (domain.ScreenShare, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.State != domain.SessionActive {
		return domain.ScreenShare{}, false
	}
	if sharing {
		r.share = domain.ScreenShare{Active: true, PresenterID: uid}
	} else if r.share.PresenterID == uid {
		r.share = domain.ScreenShare{}
	}
	return r.share, true
}

// Info snapshots the conference state. Active is false when no video
// session exists for the room.
func (r *Room) Info() ConferenceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || r.session.State != domain.SessionActive {
		return ConferenceInfo{Active: false}
	}
	sess := *r.session
	out := ConferenceInfo{
		Active:       true,
		Session:      &sess,
		Participants: make([]domain.Participant, 0, len(r.participants)),
		ScreenShare:  r.share,
	}
	for _, p := range r.participants {
		out.Participants = append(out.Participants, *p)
	}
	return out
}
