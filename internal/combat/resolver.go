package combat

import (
	"math"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/simrand"
)

// AttackInput bundles every input the §4.5 modifier pipeline needs for a
// single attack resolution. Callers (typically internal/sim's GameLoop)
// are responsible for deriving these from entitystore.Character/Unit,
// internal/aiming, and internal/combat's own DefenseManager/BraveryTracker
// before calling Resolve.
type AttackInput struct {
	DistanceFt float64
	MaxRangeFt float64 // ignored for melee callers; use a value >= DistanceFt

	ShooterDexterity int
	ShooterCoolness  int
	StressBase       int // from config.SimConfig

	WeaponAccuracy int
	WeaponDamage   int

	ShooterMoving       bool
	ShooterMovementType entitystore.MovementType

	FiringState FiringState
	// AimingModifier is the accumulated aiming bonus (internal/aiming) or 0
	// when no bonus applies and the selected speed contributes nothing
	// (§4.4: Quick/Normal never bonus; Careful/VeryCareful before threshold
	// don't either).
	AimingModifier int
	// BurstPenalty is aiming.BurstPenalty for shots 2+ in a burst/auto
	// sequence, else 0. When non-zero, callers must also have set
	// AimingModifier to 0 (the burst override disregards aiming).
	BurstPenalty int

	TargetPerpendicularSpeedFtPerSec float64

	ShooterWounds      []entitystore.Wound
	ShooterDominantArm entitystore.BodyPart

	SkillLevel        int
	VeryCarefulActive bool

	TargetStance entitystore.Stance

	UnexpiredBraveryFailures int

	FirstAttackOnTarget bool
	FirstAttackPenalty  int // from config.SimConfig

	DefenseRoll int // 0 for ranged attacks or melee attacks that rolled no defense
}

// Breakdown is the computed value of every named §4.5 modifier, useful for
// tests and diagnostics (the pipeline is additive — §9 design note: sum,
// don't short-circuit).
type Breakdown struct {
	Dexterity      int
	Stress         int
	Range          float64
	WeaponAccuracy int
	ShooterMovement int
	Aiming         int
	BurstPenalty   int
	TargetMovement float64
	Wound          int
	Skill          int
	TargetPosition int
	Bravery        int
	FirstAttack    int
	FiringState    int
	Defense        int
	SizeCover      int
	Total          float64
}

// ComputeBreakdown computes every modifier independently and sums them,
// base 50, per §4.5.
func ComputeBreakdown(in AttackInput) Breakdown {
	b := Breakdown{
		Dexterity:       dexterityModifier(in.ShooterDexterity),
		Stress:          stressModifier(in.StressBase, in.ShooterCoolness),
		Range:           rangeModifier(in.DistanceFt, in.MaxRangeFt),
		WeaponAccuracy:  in.WeaponAccuracy,
		ShooterMovement: shooterMovementModifier(in.ShooterMoving, in.ShooterMovementType),
		Aiming:          in.AimingModifier,
		BurstPenalty:    in.BurstPenalty,
		TargetMovement:  targetMovementModifier(in.TargetPerpendicularSpeedFtPerSec),
		Wound:           woundModifier(in.ShooterWounds, in.ShooterDominantArm),
		Skill:           skillModifier(in.SkillLevel, in.VeryCarefulActive),
		TargetPosition:  targetPositionModifier(in.TargetStance),
		Bravery:         braveryModifier(in.UnexpiredBraveryFailures),
		FirstAttack:     firstAttackModifier(in.FirstAttackOnTarget, in.VeryCarefulActive, in.FirstAttackPenalty),
		FiringState:     firingStateModifier(in.FiringState),
		Defense:         defenseModifier(in.DefenseRoll),
		SizeCover:       0, // reserved, §4.5
	}
	b.Total = 50 +
		float64(b.Dexterity) + float64(b.Stress) + b.Range + float64(b.WeaponAccuracy) +
		float64(b.ShooterMovement) + float64(b.Aiming) + float64(b.BurstPenalty) + b.TargetMovement +
		float64(b.Wound) + float64(b.Skill) + float64(b.TargetPosition) + float64(b.Bravery) +
		float64(b.FirstAttack) + float64(b.FiringState) + float64(b.Defense) + float64(b.SizeCover)
	return b
}

// ChanceToHit returns the final hit-chance percentage: the additive sum,
// floored at 0.01 for in-range shots (§4.5, §8 Invariant 3). Out-of-range
// shots are returned unfloored (may be negative) and always miss.
func ChanceToHit(in AttackInput) float64 {
	chance := ComputeBreakdown(in).Total
	if in.DistanceFt <= in.MaxRangeFt && chance < 0.01 {
		return 0.01
	}
	return chance
}

// Outcome is the result of resolving a single attack.
type Outcome struct {
	Hit      bool
	Chance   float64
	BodyPart entitystore.BodyPart
	Severity entitystore.WoundSeverity
	Damage   int
}

// Resolve rolls a single attack against in, using rng for every stochastic
// draw. Grounded on the teacher's CombatManager.ResolveCombat
// compute-then-roll-once idiom.
func Resolve(in AttackInput, rng *simrand.RandomProvider) Outcome {
	chance := ChanceToHit(in)
	r := rng.NextDouble() * 100

	if !(in.DistanceFt <= in.MaxRangeFt) || !(r < chance) {
		return Outcome{Hit: false, Chance: chance}
	}

	excellentThreshold := 0.2 * chance
	goodThreshold := 0.7 * chance

	var bodyPart entitystore.BodyPart
	excellent := r < excellentThreshold

	switch {
	case excellent:
		if rng.NextDouble()*100 < 15 {
			bodyPart = entitystore.Head
		} else {
			bodyPart = entitystore.Chest
		}
	case r < goodThreshold:
		if rng.NextDouble()*100 < 2 {
			bodyPart = entitystore.Head
		} else if rng.NextDouble() < 0.5 {
			bodyPart = entitystore.Chest
		} else {
			bodyPart = entitystore.Abdomen
		}
	default:
		bodyPart = uniformBodyPart(rng.NextDouble() * 100)
	}

	var severity entitystore.WoundSeverity
	if excellent {
		severity = entitystore.Critical
	} else {
		vital := bodyPart == entitystore.Head || bodyPart == entitystore.Chest || bodyPart == entitystore.Abdomen
		severity = severityFromRoll(rng.NextDouble()*100, vital)
	}

	damage := damageForSeverity(in.WeaponDamage, severity)
	if bodyPart == entitystore.Head {
		damage = int(math.Round(float64(damage) * 1.5))
	}

	return Outcome{Hit: true, Chance: chance, BodyPart: bodyPart, Severity: severity, Damage: damage}
}

// uniformBodyPart picks a body part from the §4.5 "otherwise" distribution
// using cumulative thresholds over a roll in [0, 100).
func uniformBodyPart(roll float64) entitystore.BodyPart {
	switch {
	case roll < 12:
		return entitystore.LeftArm
	case roll < 24:
		return entitystore.RightArm
	case roll < 32:
		return entitystore.LeftShoulder
	case roll < 40:
		return entitystore.RightShoulder
	case roll < 50:
		return entitystore.Head
	case roll < 65:
		return entitystore.LeftLeg
	default:
		return entitystore.RightLeg
	}
}

// severityFromRoll interprets a fresh roll in [0, 100) against the §4.5
// vital/non-vital wound-severity tables.
func severityFromRoll(roll float64, vital bool) entitystore.WoundSeverity {
	if vital {
		switch {
		case roll < 30:
			return entitystore.Critical
		case roll < 70:
			return entitystore.Serious
		case roll < 95:
			return entitystore.Light
		default:
			return entitystore.Scratch
		}
	}
	switch {
	case roll < 10:
		return entitystore.Critical
	case roll < 35:
		return entitystore.Serious
	case roll < 80:
		return entitystore.Light
	default:
		return entitystore.Scratch
	}
}

// damageForSeverity derives damage from weapon base damage and wound
// severity (§4.5).
func damageForSeverity(base int, severity entitystore.WoundSeverity) int {
	switch severity {
	case entitystore.Critical, entitystore.Serious:
		return base
	case entitystore.Light:
		d := int(math.Round(0.4 * float64(base)))
		if d < 1 {
			d = 1
		}
		return d
	case entitystore.Scratch:
		return 1
	default:
		return base
	}
}
