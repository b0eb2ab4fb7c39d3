// Package domain contains entity meta-data without logic.
package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxIdentityLen  = 36
	DefaultIdentity = "guest"
)

type ParticipantID string

// Participant is one live connection's meta: a generated unique id plus the
// display identity the joiner asked for. Identity is not a uniqueness key and
// may collide across participants.
type Participant struct {
	ID       ParticipantID `json:"id"`
	Identity string        `json:"identity"`
}

// NewParticipant avoids raw literals in adapters and keeps construction obvious.
// An absent identity gets the default, an oversized one is clamped.
func NewParticipant(identity string) *Participant {
	if identity == "" {
		identity = DefaultIdentity
	}
	return &Participant{ID: ParticipantID(uuid.NewString()), Identity: clampRunes(identity, MaxIdentityLen)}
}

// clampRunes truncates s to at most max runes, never mid-rune.
func clampRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
