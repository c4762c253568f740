package signal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (ctl *CollabController) handleStart(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn) {
	res, err := ctl.Conf.Start(ctx, roomID, user)
	if err != nil {
		ctl.respondErr(c, "start", err)
		return
	}
	ctl.respond(c, "start", res)
}

func (ctl *CollabController) handleJoin(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn) {
	res, err := ctl.Conf.Join(ctx, roomID, user)
	if err != nil {
		ctl.respondErr(c, "join", err)
		return
	}
	ctl.respond(c, "join", res)
}

func (ctl *CollabController) handleLeave(roomID domain.RoomID, user *domain.User, c *wsConn) {
	ctl.Conf.Leave(roomID, user)
	ctl.respond(c, "leave", nil)
}

func (ctl *CollabController) handleEnd(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn) {
	if err := ctl.Conf.End(ctx, roomID, user); err != nil {
		ctl.respondErr(c, "end", err)
		return
	}
	ctl.respond(c, "end", nil)
}

// handleSignal validates the envelope shape and hands it to the relay.
// The payload itself stays opaque to the core; only its framing is
// checked here so a garbled SDP never reaches the peer.
func (ctl *CollabController) handleSignal(roomID domain.RoomID, user *domain.User, c *wsConn, kind string, data []byte) {
	var p struct {
		Type     string          `json:"type"`
		TargetID domain.UserID   `json:"target_id"`
		Payload  json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad signal payload")
		ctl.respondErr(c, kind, fmt.Errorf("malformed signal: %w", core.ErrValidation))
		return
	}
	if err := validateSignalPayload(domain.SignalKind(kind), p.Payload); err != nil {
		ctl.respondErr(c, kind, err)
		return
	}
	err := ctl.Conf.RelaySignal(roomID, user, domain.SignalingEnvelope{
		Kind:     domain.SignalKind(kind),
		TargetID: p.TargetID,
		Payload:  p.Payload,
	})
	if err != nil {
		ctl.respondErr(c, kind, err)
		return
	}
	// Dropped envelopes still succeed: negotiation races are the
	// sender's problem to retry, not an error.
	ctl.respond(c, kind, nil)
}

// validateSignalPayload checks that offers and answers decode as an
// SDP description and candidates as an ICE candidate init.
func validateSignalPayload(kind domain.SignalKind, payload json.RawMessage) error {
	if len(payload) == 0 {
		return fmt.Errorf("signal without payload: %w", core.ErrValidation)
	}
	switch kind {
	case domain.SignalOffer, domain.SignalAnswer:
		var sdp webrtc.SessionDescription
		if err := json.Unmarshal(payload, &sdp); err != nil || sdp.SDP == "" {
			return fmt.Errorf("malformed session description: %w", core.ErrValidation)
		}
	case domain.SignalICECandidate:
		var cand webrtc.ICECandidateInit
		if err := json.Unmarshal(payload, &cand); err != nil || cand.Candidate == "" {
			return fmt.Errorf("malformed ice candidate: %w", core.ErrValidation)
		}
	}
	return nil
}

func (ctl *CollabController) handleScreenShare(ctx context.Context, roomID domain.RoomID, user *domain.User, c *wsConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Sharing bool   `json:"sharing"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.respondErr(c, "screen-share-toggle", fmt.Errorf("malformed toggle: %w", core.ErrValidation))
		return
	}
	share, err := ctl.Conf.ToggleScreenShare(ctx, roomID, user, p.Sharing)
	if err != nil {
		ctl.respondErr(c, "screen-share-toggle", err)
		return
	}
	ctl.respond(c, "screen-share-toggle", share)
}

func (ctl *CollabController) handleSessionInfo(roomID domain.RoomID, c *wsConn) {
	ctl.respond(c, "session-info", ctl.Conf.Info(roomID))
}
