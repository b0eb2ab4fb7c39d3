package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room  *domain.Room
	mu    sync.RWMutex
	byID  map[domain.ParticipantID]ParticipantSession
	order []domain.ParticipantID
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room: room,
		byID: make(map[domain.ParticipantID]ParticipantSession),
	}
}

func (r *roomImpl) Name() domain.RoomName { return r.room.Name }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *roomImpl) AddMember(ps ParticipantSession) {
	id := ps.Meta().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = ps
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("participant", string(id)).Msg("member added")
}

func (r *roomImpl) RemoveMember(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.Name)).Str("participant", string(id)).Msg("member removed")
}

func (r *roomImpl) Member(id domain.ParticipantID) (ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, ok := r.byID[id]
	return ps, ok
}

func (r *roomImpl) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if ps, ok := r.byID[id]; ok {
			out = append(out, ps.Meta().Identity)
		}
	}
	return out
}

func (r *roomImpl) Broadcast(from domain.ParticipantID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for id, ps := range r.byID {
		if id == from {
			continue
		}
		if err := ps.Conn().TrySend(data); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("broadcast result")
	return res
}
