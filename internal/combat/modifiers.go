package combat

import (
	"tacticalcore/internal/entitystore"
)

// FiringState distinguishes firing from a steady aim versus from the hip
// (§4.5 "Firing-state" row).
type FiringState int

const (
	FiringFromAiming FiringState = iota
	FiringFromHip
)

// dexterityModifier is the §4.5 "Dexterity" row.
func dexterityModifier(dexterity int) int {
	return StatToModifier(dexterity)
}

// stressModifier is the §4.5 "Stress" row: min(0, stress_base +
// coolness_modifier).
func stressModifier(stressBase int, coolness int) int {
	v := stressBase + StatToModifier(coolness)
	if v > 0 {
		return 0
	}
	return v
}

// rangeModifier is the §4.5 "Range" row, piecewise around the optimal
// distance o = 0.3 * maxRangeFt.
func rangeModifier(distanceFt, maxRangeFt float64) float64 {
	o := 0.3 * maxRangeFt
	if distanceFt <= o {
		return 10 * (1 - distanceFt/o)
	}
	if maxRangeFt <= o {
		return 0
	}
	return -(distanceFt - o) / (maxRangeFt - o) * 20
}

// shooterMovementModifier is the §4.5 "Shooter movement" row. moving is
// false when the shooter has no active movement target this tick.
func shooterMovementModifier(moving bool, movementType entitystore.MovementType) int {
	if !moving {
		return 0
	}
	switch movementType {
	case entitystore.Walk:
		return -5
	case entitystore.Crawl:
		return -10
	case entitystore.Jog:
		return -15
	case entitystore.Run:
		return -25
	default:
		return 0
	}
}

// targetMovementModifier is the §4.5 "Target movement" row:
// -2 * perpendicular_speed_ft_per_s.
func targetMovementModifier(perpendicularSpeedFtPerSec float64) float64 {
	return -2 * perpendicularSpeedFtPerSec
}

// woundCategoryPenalty is the per-wound penalty for a non-head/non-
// dominant-arm wound, by severity (§4.5 "Wound" row).
func woundCategoryPenalty(severity entitystore.WoundSeverity) int {
	switch severity {
	case entitystore.Light:
		return 1
	case entitystore.Serious:
		return 2
	case entitystore.Critical:
		return 0 // uses wound.Damage instead, see woundModifier
	case entitystore.Scratch:
		return 0
	default:
		return 0
	}
}

// woundModifier is the §4.5 "Wound" row, summed over the shooter's own
// wounds: head or dominant-arm wounds subtract their full damage; other
// body parts subtract a fixed per-severity amount (critical uses the
// wound's damage; scratch contributes nothing).
func woundModifier(wounds []entitystore.Wound, dominantArm entitystore.BodyPart) int {
	total := 0
	for _, w := range wounds {
		if w.BodyPart == entitystore.Head || w.BodyPart == dominantArm {
			total -= w.Damage
			continue
		}
		if w.Severity == entitystore.Critical {
			total -= w.Damage
			continue
		}
		total -= woundCategoryPenalty(w.Severity)
	}
	return total
}

// DominantArm returns the body part corresponding to a character's
// dominant hand, for use with woundModifier. Ambidextrous characters use
// the right arm as a tie-break — the spec does not define a third
// behavior for ambidextrous shooters.
func DominantArm(h entitystore.Handedness) entitystore.BodyPart {
	if h == entitystore.Left {
		return entitystore.LeftArm
	}
	return entitystore.RightArm
}

// skillModifier is the §4.5 "Skill" row: 5 * level for the weapon's
// matching skill, doubled when Very Careful benefits are active. Callers
// pass 0 for skillLevel when the weapon type has no matching skill.
func skillModifier(skillLevel int, veryCarefulActive bool) int {
	v := 5 * skillLevel
	if veryCarefulActive {
		v *= 2
	}
	return v
}

// targetPositionModifier is the §4.5 "Target position" row. "Moderate" for
// kneeling is not numerically specified in the source; this
// implementation uses -7, the midpoint between standing (0) and prone
// (-15).
func targetPositionModifier(stance entitystore.Stance) int {
	switch stance {
	case entitystore.Kneeling:
		return -7
	case entitystore.Prone:
		return -15
	default:
		return 0
	}
}

// braveryModifier is the §4.5 "Bravery" row: -10 per unexpired failure.
func braveryModifier(unexpiredFailures int) int {
	return -10 * unexpiredFailures
}

// firstAttackModifier is the §4.5 "First-attack" row.
func firstAttackModifier(firstAttackOnTarget, veryCarefulActive bool, penalty int) int {
	if firstAttackOnTarget && !veryCarefulActive {
		return penalty
	}
	return 0
}

// firingStateModifier is the §4.5 "Firing-state" row.
func firingStateModifier(state FiringState) int {
	if state == FiringFromHip {
		return -20
	}
	return 0
}

// defenseModifier is the §4.5 "Defense (melee only)" row.
func defenseModifier(defenseRoll int) int {
	return -defenseRoll
}
