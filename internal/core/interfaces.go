package core

import (
	"context"

	"github.com/hirestack/interview-relay/internal/domain"
)

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// Conn abstracts a participant's outbound transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// Transcriber is one participant's streaming session with the external
// speech-to-text service. ForwardAudio silently drops chunks while the
// session is not open; a non-nil error means a real fault on an open
// session. Finish is idempotent and returns after a bounded wait even if
// the service never confirms shutdown.
type Transcriber interface {
	// Start opens the session and binds its lifetime to ctx.
	Start(ctx context.Context) error
	ForwardAudio(chunk []byte) error
	Finish()
	// OnOpen fires before any transcript is delivered.
	OnOpen(func())
	OnTranscript(func(text string, final bool))
	OnError(func(msg string))
	// OnClosed is terminal and fires at most once.
	OnClosed(func())
}

// TranscriberFactory opens one Transcriber per joining participant.
type TranscriberFactory interface {
	New(id domain.ParticipantID) Transcriber
}

// ParticipantSession binds participant meta to its transport endpoint and
// transcription session. This is what a room stores and fans out to.
type ParticipantSession interface {
	Meta() *domain.Participant
	Conn() Conn
	Transcriber() Transcriber
}

// PublishResult reports delivery stats to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped int
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Name() domain.RoomName
	MemberCount() int
	// Identities returns display identities in join order.
	Identities() []string
	Member(id domain.ParticipantID) (ParticipantSession, bool)
	AddMember(ParticipantSession)
	RemoveMember(id domain.ParticipantID)
	// Broadcast fans data out to every member except from.
	Broadcast(from domain.ParticipantID, data Frame) PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"participant_count"`
}
