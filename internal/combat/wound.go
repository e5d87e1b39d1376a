package combat

import (
	"tacticalcore/internal/entitystore"
)

// WoundHesitationTicks is the flinch pause applied to a character when a
// new wound is applied (§9 Open Question 3 — see DESIGN.md).
const WoundHesitationTicks uint64 = 15

// WoundSystem applies combat damage to characters: appends the wound,
// decrements health, sets a flinch hesitation window, and
// forces Prone stance when both legs are wounded. Movement speed itself is
// derived live from Character.LegWounds by internal/movement — WoundSystem
// does not duplicate that restriction, only the stance change §4.5 names
// alongside it.
//
// Grounded on the teacher's Player.TakeDamage (player.go), generalized from
// a flat health subtraction into the §4.5/§4.9 wound-record-plus-
// restrictions model.
type WoundSystem struct{}

// NewWoundSystem returns a WoundSystem. It holds no state; all mutation is
// against the Character passed to Apply.
func NewWoundSystem() *WoundSystem {
	return &WoundSystem{}
}

// Apply records a wound of the given body part/severity/damage on ch at
// currentTick and decrements health; it updates no counters. Returns true if
// the wound incapacitates ch. WoundsBySeverity is not touched here: §3
// defines that counter as wounds inflicted, which belongs to the attacker,
// not ch (the wounded party) — callers increment it on the shooter.
func (WoundSystem) Apply(ch *entitystore.Character, bodyPart entitystore.BodyPart, severity entitystore.WoundSeverity, damage int, currentTick uint64) (incapacitated bool) {
	ch.Wounds = append(ch.Wounds, entitystore.Wound{BodyPart: bodyPart, Severity: severity, Damage: damage})
	ch.CurrentHealth -= damage
	if ch.CurrentHealth < 0 {
		ch.CurrentHealth = 0
	}

	if currentTick+WoundHesitationTicks > ch.HesitationUntil {
		ch.HesitationUntil = currentTick + WoundHesitationTicks
	}

	if left, right := ch.LegWounds(); left && right {
		ch.Stance = entitystore.Prone
	}

	return ch.IsIncapacitated()
}
