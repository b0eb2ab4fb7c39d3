package core

import "github.com/hirestack/interview-relay/internal/domain"

// participantSession implements ParticipantSession by pairing meta with its
// transport endpoint and transcription session.
type participantSession struct {
	meta *domain.Participant
	conn Conn
	tr   Transcriber
}

func NewParticipantSession(meta *domain.Participant, conn Conn, tr Transcriber) ParticipantSession {
	return &participantSession{meta: meta, conn: conn, tr: tr}
}

func (s *participantSession) Meta() *domain.Participant { return s.meta }
func (s *participantSession) Conn() Conn                { return s.conn }
func (s *participantSession) Transcriber() Transcriber  { return s.tr }
