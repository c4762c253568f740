package domain

import "encoding/json"

type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

// SignalingEnvelope carries one WebRTC negotiation payload between two
// participants. The payload is relayed opaque and never persisted.
type SignalingEnvelope struct {
	Kind     SignalKind      `json:"kind"`
	RoomID   RoomID          `json:"room_id"`
	SenderID UserID          `json:"sender_id"`
	TargetID UserID          `json:"target_id"`
	Payload  json.RawMessage `json:"payload"`
}
