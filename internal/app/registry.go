package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/core"
	"github.com/hirestack/interview-relay/internal/domain"
)

type sessionEntry struct {
	RoomName domain.RoomName
	Session  core.ParticipantSession
}

// Registry tracks every live connection by its generated participant id.
// It holds lookup references only; sessions are owned by their room.
// Entries are uniquely keyed, so a plain RWMutex map is enough here; the
// room directory is the one that needs cross-entry atomicity.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ParticipantID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ParticipantID]*sessionEntry)}
}

// Register records a live session and returns its generated id.
func (r *Registry) Register(sess core.ParticipantSession, room domain.RoomName) domain.ParticipantID {
	id := sess.Meta().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &sessionEntry{RoomName: room, Session: sess}
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Str("room", string(room)).Msg("registered session")
	return id
}

// Lookup returns the live session for id, or false for unknown or already
// removed ids. Never an error.
func (r *Registry) Lookup(id domain.ParticipantID) (core.ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.Session, true
	}
	return nil, false
}

// RoomOf returns the room a registered participant belongs to.
func (r *Registry) RoomOf(id domain.ParticipantID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[id]; ok {
		return e.RoomName, true
	}
	return "", false
}

// Remove atomically takes the entry out of the registry. The second call for
// the same id returns false, which is what makes teardown run exactly once.
func (r *Registry) Remove(id domain.ParticipantID) (core.ParticipantSession, domain.RoomName, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, "", false
	}
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Msg("removed session")
	return e.Session, e.RoomName, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
