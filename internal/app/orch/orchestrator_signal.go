package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/domain"
	"github.com/hirestack/interview-relay/internal/protocol"
)

// Route relays a call-setup message from a sender to the one participant it
// names, within the sender's room. Routing is best-effort: an unknown or
// disconnected target means the message is dropped without any notice to
// the sender.
func (o *Orchestrator) Route(from domain.ParticipantID, msg protocol.Signal) {
	if !protocol.IsSignal(msg.Type) {
		log.Debug().Str("module", "orch.signal").Str("type", msg.Type).Msg("ignoring non-signal message")
		return
	}
	roomName, ok := o.Registry.RoomOf(from)
	if !ok {
		return
	}
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return
	}
	target, ok := room.Member(msg.Target)
	if !ok {
		log.Debug().Str("module", "orch.signal").Str("from", string(from)).Str("target", string(msg.Target)).Msg("target not in room, dropped")
		return
	}
	msg.Source = from
	o.send(target, msg)
}
