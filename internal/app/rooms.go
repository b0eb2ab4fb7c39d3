package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hirestack/interview-relay/internal/core"
	"github.com/hirestack/interview-relay/internal/domain"
)

// Directory maps room names to live rooms. Rooms are created on first join
// and deleted the moment their last member leaves; an empty room is never
// observable. Join and Leave hold the directory lock across the whole
// membership mutation so create/add and remove/delete cannot interleave.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]core.RoomService
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomName]core.RoomService)}
}

// Join adds sess to the named room, creating it if absent. admitted, if
// non-nil, runs while the directory lock is still held, so anything it
// enqueues (the join snapshot, the joined notification) is ordered before
// any membership change caused by a later joiner.
func (d *Directory) Join(name domain.RoomName, sess core.ParticipantSession, admitted func(room core.RoomService)) core.RoomService {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[name]
	if !ok {
		room = core.NewRoomService(&domain.Room{Name: name})
		d.rooms[name] = room
		log.Info().Str("module", "app.directory").Str("room", string(name)).Msg("room created")
	}
	room.AddMember(sess)
	if admitted != nil {
		admitted(room)
	}
	return room
}

// Leave removes id from the named room and deletes the room if it is now
// empty. departed, if non-nil, runs under the directory lock with the room
// as it stands after removal.
func (d *Directory) Leave(name domain.RoomName, id domain.ParticipantID, departed func(room core.RoomService)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[name]
	if !ok {
		return
	}
	room.RemoveMember(id)
	if departed != nil {
		departed(room)
	}
	if room.MemberCount() == 0 {
		delete(d.rooms, name)
		log.Info().Str("module", "app.directory").Str("room", string(name)).Msg("room deleted")
	}
}

func (d *Directory) Get(name domain.RoomName) (core.RoomService, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[name]
	return room, ok
}

func (d *Directory) List() []core.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(d.rooms))
	for name, r := range d.rooms {
		out = append(out, core.RoomInfo{Name: name, MemberCount: r.MemberCount()})
	}
	return out
}
