package orch

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/core"
	"github.com/hirestack/interview-relay/internal/domain"
	"github.com/hirestack/interview-relay/internal/protocol"
)

// OnAudio forwards one inbound binary frame to the participant's
// transcription session. Chunks arriving before the session is open are
// dropped by the transcriber itself; a real forwarding fault is reported to
// this participant only.
func (o *Orchestrator) OnAudio(id domain.ParticipantID, chunk []byte) {
	sess, ok := o.Registry.Lookup(id)
	if !ok {
		return
	}
	if err := sess.Transcriber().ForwardAudio(chunk); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("participant", string(id)).Msg("forward audio")
		o.sendError(sess, "audio forwarding failed")
	}
}

// bindTranscriber wires the transcription session's events back into the
// room. Interim results go to the speaker only; finals are fanned out to
// the whole room.
func (o *Orchestrator) bindTranscriber(sess core.ParticipantSession) {
	id := sess.Meta().ID
	tr := sess.Transcriber()

	tr.OnOpen(func() {
		o.send(sess, protocol.TranscriptionReady{Type: protocol.KindTranscriptionReady})
	})
	tr.OnTranscript(func(text string, final bool) {
		o.deliverTranscript(sess, text, final)
	})
	tr.OnError(func(msg string) {
		log.Warn().Str("module", "orch").Str("participant", string(id)).Str("reason", msg).Msg("transcription error")
		o.sendError(sess, msg)
	})
	tr.OnClosed(func() {
		log.Info().Str("module", "orch").Str("participant", string(id)).Msg("transcription session closed")
	})
}

// deliverTranscript sends a result back to the speaker unconditionally so
// they see their own live text, and to the rest of the room only once the
// utterance is final. Whitespace-only text never gets here.
func (o *Orchestrator) deliverTranscript(sess core.ParticipantSession, text string, final bool) {
	if strings.TrimSpace(text) == "" {
		return
	}
	id := sess.Meta().ID
	msg := protocol.TranscriptResult{
		Type:      protocol.KindTranscriptResult,
		Speaker:   sess.Meta().Identity,
		Text:      text,
		IsFinal:   final,
		Timestamp: time.Now().UnixMilli(),
	}
	o.send(sess, msg)
	if !final {
		return
	}
	roomName, ok := o.Registry.RoomOf(id)
	if !ok {
		return
	}
	if room, ok := o.Rooms.Get(roomName); ok {
		o.broadcast(room, id, msg)
	}
}
