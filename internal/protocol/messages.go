// Package protocol defines the closed set of control messages exchanged with
// participants. Binary frames carry raw audio and never reach this package;
// everything else is a JSON envelope dispatched on its "type" field.
package protocol

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/hirestack/interview-relay/internal/domain"
)

// Inbound signaling kinds, relayed peer to peer.
const (
	KindCallOffer    = "call-offer"
	KindCallAnswer   = "call-answer"
	KindICECandidate = "ice-candidate"
)

// Outbound kinds.
const (
	KindRoomInfo           = "room-info"
	KindParticipantJoined  = "participant-joined"
	KindParticipantLeft    = "participant-left"
	KindTranscriptionReady = "transcription-ready"
	KindTranscriptResult   = "transcript-result"
	KindError              = "error"
)

// Signal is a call-setup message. Inbound it names a target; the router
// stamps the sender as source before forwarding. The relay never interprets
// the SDP or candidate contents.
type Signal struct {
	Type      string                   `json:"type"`
	Target    domain.ParticipantID     `json:"target,omitempty"`
	Source    domain.ParticipantID     `json:"source,omitempty"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

// RoomInfo is sent once to a participant immediately after join.
type RoomInfo struct {
	Type          string               `json:"type"`
	RoomName      domain.RoomName      `json:"roomName"`
	ParticipantID domain.ParticipantID `json:"participantId"`
	Participants  []string             `json:"participants"`
}

// Membership announces a participant joining or leaving to the rest of
// the room.
type Membership struct {
	Type          string               `json:"type"`
	Identity      string               `json:"identity"`
	ParticipantID domain.ParticipantID `json:"participantId"`
}

// TranscriptionReady tells a participant it may start sending audio.
type TranscriptionReady struct {
	Type string `json:"type"`
}

// TranscriptResult carries one recognition result. Timestamp is unix
// milliseconds at delivery time.
type TranscriptResult struct {
	Type      string `json:"type"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	IsFinal   bool   `json:"isFinal"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorMessage is a participant-local error report; it is never broadcast.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type envelope struct {
	Type string `json:"type"`
}

// Kind extracts the envelope tag from a raw control message.
func Kind(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", err
	}
	return env.Type, nil
}

// IsSignal reports whether kind belongs to the call-setup message set.
func IsSignal(kind string) bool {
	switch kind {
	case KindCallOffer, KindCallAnswer, KindICECandidate:
		return true
	}
	return false
}

// DecodeSignal parses a raw inbound signaling message.
func DecodeSignal(data []byte) (Signal, error) {
	var s Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return Signal{}, err
	}
	return s, nil
}
