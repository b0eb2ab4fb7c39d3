// Package orch coordinates join/leave lifecycle, transcript fan-out and
// call-setup routing across the registry and the room directory.
package orch

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/app"
	"github.com/hirestack/interview-relay/internal/core"
	"github.com/hirestack/interview-relay/internal/domain"
	"github.com/hirestack/interview-relay/internal/protocol"
)

type Orchestrator struct {
	Registry     *app.Registry
	Rooms        *app.Directory
	Transcribers core.TranscriberFactory
}

// Join registers a new connection, admits it into the room, sends the join
// snapshot, announces it to the rest of the room and starts its
// transcription session. A transcription start failure is reported to the
// joiner only; the connection stays up.
func (o *Orchestrator) Join(ctx context.Context, conn core.Conn, roomName domain.RoomName, identity string) core.ParticipantSession {
	meta := domain.NewParticipant(identity)
	tr := o.Transcribers.New(meta.ID)
	sess := core.NewParticipantSession(meta, conn, tr)

	o.Registry.Register(sess, roomName)
	o.Rooms.Join(roomName, sess, func(room core.RoomService) {
		o.send(sess, protocol.RoomInfo{
			Type:          protocol.KindRoomInfo,
			RoomName:      roomName,
			ParticipantID: meta.ID,
			Participants:  room.Identities(),
		})
		o.broadcast(room, meta.ID, protocol.Membership{
			Type:          protocol.KindParticipantJoined,
			Identity:      meta.Identity,
			ParticipantID: meta.ID,
		})
	})
	log.Info().Str("module", "orch").Str("participant", string(meta.ID)).Str("room", string(roomName)).Str("identity", meta.Identity).Msg("joined")

	o.bindTranscriber(sess)
	if err := tr.Start(ctx); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("participant", string(meta.ID)).Msg("transcription start failed")
		o.sendError(sess, "transcription unavailable")
	}
	return sess
}

// Leave unwinds everything Join set up. It is idempotent: the registry hands
// the session out exactly once, so the transcription session is finished
// exactly once and the departure is announced exactly once, no matter how
// many paths (read error, liveness kick) race into here.
func (o *Orchestrator) Leave(id domain.ParticipantID) {
	sess, roomName, ok := o.Registry.Remove(id)
	if !ok {
		return
	}
	sess.Transcriber().Finish()
	o.Rooms.Leave(roomName, id, func(room core.RoomService) {
		o.broadcast(room, id, protocol.Membership{
			Type:          protocol.KindParticipantLeft,
			Identity:      sess.Meta().Identity,
			ParticipantID: id,
		})
	})
	log.Info().Str("module", "orch").Str("participant", string(id)).Str("room", string(roomName)).Msg("left")
}

// send encodes v and enqueues it for one participant. A closed or congested
// connection is a silent no-op.
func (o *Orchestrator) send(sess core.ParticipantSession, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode outbound")
		return
	}
	_ = sess.Conn().TrySend(core.Frame(b))
}

// broadcast encodes v and fans it out to every room member except from.
func (o *Orchestrator) broadcast(room core.RoomService, from domain.ParticipantID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode broadcast")
		return
	}
	room.Broadcast(from, core.Frame(b))
}

func (o *Orchestrator) sendError(sess core.ParticipantSession, msg string) {
	o.send(sess, protocol.ErrorMessage{Type: protocol.KindError, Message: msg})
}
