package domain

const (
	MaxRoomNameLen  = 64
	DefaultRoomName = "interview"
)

type RoomName string

type Room struct {
	Name RoomName
}

// NormalizeRoomName applies the join-time default and clamps oversized names.
func NormalizeRoomName(raw string) RoomName {
	if raw == "" {
		raw = DefaultRoomName
	}
	return RoomName(clampRunes(raw, MaxRoomNameLen))
}
