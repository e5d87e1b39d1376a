package combat

import (
	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/simrand"
)

// DefaultDefenseCooldownTicks is how long a character must wait between
// successful defense rolls (§4.6, config.SimConfig.DefenseCooldownTicks).
const DefaultDefenseCooldownTicks uint64 = 60

// DefenseInput bundles what PerformDefense needs to roll a melee defense.
type DefenseInput struct {
	DefenderDexterity int
	SkillLevel        int // defender's skill with their equipped melee weapon
	WeaponAccuracy    int // the defending weapon's accuracy rating
}

// DefenseManager tracks per-character defense cooldowns and rolls melee
// defense values for CombatResolver's Defense modifier row (§4.5, §4.6).
// Grounded on the teacher's CombatManager cooldown-gated ability pattern
// (combat.go), generalized from attack cooldowns to defense cooldowns.
type DefenseManager struct {
	cooldownTicks uint64
	lastDefended  map[int64]uint64 // characterID -> tick of last successful roll
}

// NewDefenseManager returns a DefenseManager using cooldownTicks between
// rolls for any one character.
func NewDefenseManager(cooldownTicks uint64) *DefenseManager {
	return &DefenseManager{
		cooldownTicks: cooldownTicks,
		lastDefended:  make(map[int64]uint64),
	}
}

// PerformDefense rolls a defense value for ch at currentTick, or returns 0
// if ch is incapacitated or still in its cooldown window. A successful roll
// starts a new cooldown from currentTick.
func (m *DefenseManager) PerformDefense(ch *entitystore.Character, in DefenseInput, currentTick uint64, rng *simrand.RandomProvider) int {
	if ch.IsIncapacitated() {
		return 0
	}
	if last, ok := m.lastDefended[ch.ID]; ok && currentTick < last+m.cooldownTicks {
		return 0
	}

	roll := rng.NextDouble()*100 + float64(StatToModifier(in.DefenderDexterity)) + float64(5*in.SkillLevel) + float64(in.WeaponAccuracy)
	if roll < 0 {
		roll = 0
	}

	m.lastDefended[ch.ID] = currentTick
	return int(roll)
}

// Reset clears the cooldown for ch, allowing an immediate defense roll.
func (m *DefenseManager) Reset(characterID int64) {
	delete(m.lastDefended, characterID)
}
