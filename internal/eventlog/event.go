// Package eventlog records the simulation's external-facing occurrences —
// shots fired, hits, incapacitations, bravery failures — as a bounded,
// rate-limited, append-only stream, for replay inspection and the §6
// on_hit/on_weapon_fired observer surface.
//
// Grounded on the teacher's event.go/event_log.go: the same typed-event,
// circular-buffer, rate-limited, async-batched-writer design, generalized
// from player-vs-player arena events to the tick-driven combat model's own
// event vocabulary.
package eventlog

import (
	"encoding/json"
	"strconv"
	"time"
)

// Type classifies a logged occurrence.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeTick
	TypeWeaponFired
	TypeHit
	TypeIncapacitated
	TypeBraveryFailure
	TypeRetarget
)

// Version guards the on-disk schema for future replay tooling.
const Version uint8 = 1

// Event is one entry in the log.
type Event struct {
	Version    uint8  `json:"version"`
	Type       Type   `json:"type"`
	Timestamp  int64  `json:"timestamp"`
	Sequence   uint64 `json:"sequence"`
	Tick       uint64 `json:"tick"`
	CharacterID string `json:"characterId"` // source character, for per-owner rate limiting
	Payload    []byte `json:"payload"`
}

func (t Type) String() string {
	switch t {
	case TypeTick:
		return "tick"
	case TypeWeaponFired:
		return "weapon_fired"
	case TypeHit:
		return "hit"
	case TypeIncapacitated:
		return "incapacitated"
	case TypeBraveryFailure:
		return "bravery_failure"
	case TypeRetarget:
		return "retarget"
	default:
		return "unknown"
	}
}

// WeaponFiredPayload mirrors §6's on_weapon_fired(attacker_id, weapon_id).
type WeaponFiredPayload struct {
	AttackerID int64  `json:"attackerId"`
	WeaponID   string `json:"weaponId"`
}

// HitPayload mirrors §6's on_hit(attacker_id, target_id, body_part,
// severity, damage).
type HitPayload struct {
	AttackerID int64  `json:"attackerId"`
	TargetID   int64  `json:"targetId"`
	BodyPart   int    `json:"bodyPart"`
	Severity   int    `json:"severity"`
	Damage     int    `json:"damage"`
	TargetHP   int    `json:"targetHp"`
}

// IncapacitatedPayload records a character dropping to zero health.
type IncapacitatedPayload struct {
	CharacterID int64 `json:"characterId"`
}

// BraveryFailurePayload records a failed bravery check.
type BraveryFailurePayload struct {
	CharacterID int64 `json:"characterId"`
}

// RetargetPayload records an auto-targeting controller acquiring a new
// target.
type RetargetPayload struct {
	CharacterID int64  `json:"characterId"`
	TargetID    *int64 `json:"targetId"`
}

// encodePayload marshals a payload to JSON, returning nil on failure rather
// than propagating an error — a malformed payload should never block
// logging of the event it describes.
func encodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent builds an Event stamped with the current wall-clock time (logging
// is the one place this module touches wall-clock time; the simulation
// core itself is tick-driven and never calls time.Now).
func NewEvent(t Type, tick uint64, characterID int64, payload interface{}) Event {
	return Event{
		Version:     Version,
		Type:        t,
		Timestamp:   time.Now().UnixNano(),
		Tick:        tick,
		CharacterID: characterIDString(characterID),
		Payload:     encodePayload(payload),
	}
}

func characterIDString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
