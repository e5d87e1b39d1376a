package sim

import (
	"math"

	"tacticalcore/internal/combat"
	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/eventlog"
	"tacticalcore/internal/movement"
	"tacticalcore/internal/weapon"
)

// BraveryWitnessRadiusFt is how close an ally must be to a wounded
// character to trigger its own bravery check (§4.9: "an ally within a
// configured radius is hit"). spec.md names the trigger but not the
// concrete radius; this implementation's choice, documented in
// DESIGN.md's Implementer decisions.
const BraveryWitnessRadiusFt = 50.0

// weaponSkillName maps a weapon to the skill name that modifies attacks
// with it (§4.5 "Skill" row: pistol/rifle/submachine_gun match, any other
// weapon type contributes 0). Melee weapons have no matching skill.
func weaponSkillName(w *weapon.Weapon) string {
	if w == nil {
		return ""
	}
	switch w.ID {
	case "pistol":
		return entitystore.SkillPistol
	case "rifle":
		return entitystore.SkillRifle
	case "submachine_gun":
		return entitystore.SkillSubmachineGun
	default:
		return ""
	}
}

// fireRangedShot resolves a single ranged shot when the weapon state
// machine reaches Firing, then either schedules the next shot in a
// burst/full-auto sequence (§4.4) or advances to Recovering.
func (g *GameLoop) fireRangedShot(ch *entitystore.Character, tick uint64) {
	w := ch.ActiveWeapon()
	if w == nil {
		return
	}

	var target *entitystore.Character
	if ch.CurrentTargetID != nil {
		target = g.Store.Character(*ch.CurrentTargetID)
	}

	ch.Counters.RangedAttempted++
	if ch.RangedAmmoRemaining > 0 {
		ch.RangedAmmoRemaining--
	}

	if target != nil && !target.IsIncapacitated() {
		self := g.Store.UnitOfCharacter(ch.ID)
		other := g.Store.UnitOfCharacter(target.ID)
		if self != nil && other != nil {
			in := g.buildRangedAttackInput(ch, target, self, other, w, tick)
			outcome := combat.Resolve(in, g.Rng)
			if outcome.Hit {
				incap := g.Wounds.Apply(target, outcome.BodyPart, outcome.Severity, outcome.Damage, tick)
				ch.Counters.RangedSuccessful++
				ch.RecordWoundInflicted(outcome.Severity)
				g.checkBraveryWitnesses(target, tick)
				g.emitHit(ch.ID, target, outcome, tick)
				if g.OnHit != nil {
					g.OnHit(HitEvent{AttackerID: ch.ID, TargetID: target.ID, BodyPart: outcome.BodyPart, Severity: outcome.Severity, Damage: outcome.Damage, Tick: tick})
				}
				if incap {
					g.incapacitate(target, tick)
				}
			}
		}
	}
	// §7: target missing or already incapacitated at resolution resolves
	// as a miss with no damage; RangedAttempted still counts the attempt,
	// RangedSuccessful does not increment.

	ch.FirstAttackOnTarget = false
	g.emitWeaponFired(ch.ID, w.ID, tick)
	if g.OnWeaponFired != nil {
		g.OnWeaponFired(FiredEvent{AttackerID: ch.ID, WeaponID: w.ID, Tick: tick})
	}

	if g.continueBurst(ch, w) {
		g.scheduleBurstShot(ch, w, tick)
		return
	}
	g.Burst.EndSequence(ch.ID)
	g.scheduleNextTransition(ch, tick)
}

// continueBurst reports whether ch's weapon should fire another shot in
// the same sequence before recovering: burst sequences stop after
// BurstSize shots, full-auto continues while ch still has a current
// target (checked here, before each further shot is scheduled).
// Either mode also stops the instant the magazine runs dry (§3 ammunition
// data, §7 out-of-ammo handling) rather than firing phantom rounds.
func (g *GameLoop) continueBurst(ch *entitystore.Character, w *weapon.Weapon) bool {
	if !w.SupportsMode(ch.FiringMode) || ch.FiringMode == weapon.SingleShot {
		return false
	}
	if ch.RangedAmmoRemaining <= 0 {
		return false
	}
	shotIdx := g.Burst.RecordShot(ch.ID)
	if ch.FiringMode == weapon.FullAuto {
		return ch.CurrentTargetID != nil
	}
	return shotIdx < w.BurstSize
}

// scheduleBurstShot schedules the next shot in a burst/full-auto sequence
// at the weapon's cyclic rate, bypassing the Aiming hold (§4.4: burst
// shots after the first disregard aiming).
func (g *GameLoop) scheduleBurstShot(ch *entitystore.Character, w *weapon.Weapon, tick uint64) {
	due := tick + w.CyclicRateTicks
	g.Scheduler.Schedule(due, ownerID(ch.ID), func() {
		if ch.IsIncapacitated() {
			return
		}
		g.fireRangedShot(ch, due)
	})
}

// resolveMeleeImpact resolves a single melee swing when the weapon state
// machine reaches MeleeAttacking: it rolls the defender's defense
// (§4.6), resolves the attack, applies any wound, and schedules the
// outcome-dependent recovery window (§4.3: "60 or 120 ticks depending on
// outcome" — this implementation recovers faster, 60 ticks, on a
// successful hit and slower, 120 ticks, on a miss or abandoned swing,
// since overextending a missed strike is the more natural reading; see
// DESIGN.md).
func (g *GameLoop) resolveMeleeImpact(ch *entitystore.Character, tick uint64) {
	w := ch.ActiveWeapon()
	if w == nil {
		return
	}
	ch.Counters.MeleeAttempted++

	var target *entitystore.Character
	if ch.CurrentTargetID != nil {
		target = g.Store.Character(*ch.CurrentTargetID)
	}
	if target == nil || target.IsIncapacitated() {
		ch.FirstAttackOnTarget = false
		g.emitWeaponFired(ch.ID, w.ID, tick)
		if g.OnWeaponFired != nil {
			g.OnWeaponFired(FiredEvent{AttackerID: ch.ID, WeaponID: w.ID, Tick: tick})
		}
		g.finishMeleeSwing(ch, tick, false)
		return
	}

	self := g.Store.UnitOfCharacter(ch.ID)
	other := g.Store.UnitOfCharacter(target.ID)
	if self == nil || other == nil {
		g.finishMeleeSwing(ch, tick, false)
		return
	}

	distFt := pixelDistance(self, other) / g.Cfg.PixelsPerFoot
	if distFt > w.EngagementDistanceFt() {
		// Target stepped out of reach mid-swing (§7 out-of-range): the
		// attack is abandoned, auto-targeting retries next tick.
		g.finishMeleeSwing(ch, tick, false)
		return
	}

	defenseWeapon := target.ActiveWeapon()
	var defenseAccuracy int
	if defenseWeapon != nil {
		defenseAccuracy = defenseWeapon.Accuracy
	}
	defenseRoll := g.Defense.PerformDefense(target, combat.DefenseInput{
		DefenderDexterity: target.Dexterity,
		SkillLevel:        target.SkillLevel(weaponSkillName(defenseWeapon)),
		WeaponAccuracy:    defenseAccuracy,
	}, tick, g.Rng)

	in := g.buildMeleeAttackInput(ch, target, self, other, w, tick, defenseRoll)
	outcome := combat.Resolve(in, g.Rng)

	hit := outcome.Hit
	if hit {
		incap := g.Wounds.Apply(target, outcome.BodyPart, outcome.Severity, outcome.Damage, tick)
		ch.Counters.MeleeSuccessful++
		ch.RecordWoundInflicted(outcome.Severity)
		g.checkBraveryWitnesses(target, tick)
		g.emitHit(ch.ID, target, outcome, tick)
		if g.OnHit != nil {
			g.OnHit(HitEvent{AttackerID: ch.ID, TargetID: target.ID, BodyPart: outcome.BodyPart, Severity: outcome.Severity, Damage: outcome.Damage, Tick: tick})
		}
		if incap {
			g.incapacitate(target, tick)
		}
	}

	ch.FirstAttackOnTarget = false
	g.emitWeaponFired(ch.ID, w.ID, tick)
	if g.OnWeaponFired != nil {
		g.OnWeaponFired(FiredEvent{AttackerID: ch.ID, WeaponID: w.ID, Tick: tick})
	}
	g.finishMeleeSwing(ch, tick, hit)
}

// finishMeleeSwing moves ch into MeleeRecovering and schedules the return
// to MeleeReady after the outcome-dependent recovery window.
func (g *GameLoop) finishMeleeSwing(ch *entitystore.Character, tick uint64, hit bool) {
	ch.WeaponState = weapon.MeleeRecovering
	recoveryTicks := uint64(120)
	if hit {
		recoveryTicks = 60
	}
	due := tick + recoveryTicks
	ch.RecoveryUntil = due
	g.Scheduler.Schedule(due, ownerID(ch.ID), func() {
		g.onTransition(ch, weapon.MeleeReady, due)
	})
}

// buildRangedAttackInput derives a combat.AttackInput for a ranged shot
// from ch/target's live state at tick.
func (g *GameLoop) buildRangedAttackInput(ch, target *entitystore.Character, self, other *entitystore.Unit, w *weapon.Weapon, tick uint64) combat.AttackInput {
	skillLevel := ch.SkillLevel(weaponSkillName(w))
	aimBonus, veryCareful := g.Aiming.AccumulatedBonus(ch.ID, tick, ch.AimingSpeed, skillLevel)
	forceZero, burstPenalty := g.Burst.AimingOverride(ch.ID)
	if forceZero {
		aimBonus = 0
	}

	firingState := combat.FiringFromAiming
	if g.Aiming.PointingFromHip(ch.ID) {
		firingState = combat.FiringFromHip
	}

	distFt := pixelDistance(self, other) / g.Cfg.PixelsPerFoot

	return combat.AttackInput{
		DistanceFt:                       distFt,
		MaxRangeFt:                       w.MaxRangeFt,
		ShooterDexterity:                 ch.Dexterity,
		ShooterCoolness:                  ch.Coolness,
		StressBase:                       g.Cfg.StressBase,
		WeaponAccuracy:                   w.Accuracy,
		WeaponDamage:                     w.Damage,
		ShooterMoving:                    self.HasTarget,
		ShooterMovementType:              g.effectiveMovementType(ch),
		FiringState:                      firingState,
		AimingModifier:                   aimBonus,
		BurstPenalty:                     burstPenalty,
		TargetPerpendicularSpeedFtPerSec: g.targetPerpendicularSpeed(self, other, target),
		ShooterWounds:                    ch.Wounds,
		ShooterDominantArm:               combat.DominantArm(ch.Handedness),
		SkillLevel:                       skillLevel,
		VeryCarefulActive:                veryCareful,
		TargetStance:                     target.Stance,
		UnexpiredBraveryFailures:         ch.UnexpiredBraveryFailures(tick, g.Cfg.BraveryPenaltyDurationTicks),
		FirstAttackOnTarget:              ch.FirstAttackOnTarget,
		FirstAttackPenalty:               g.Cfg.FirstAttackPenalty,
		DefenseRoll:                      0,
	}
}

// buildMeleeAttackInput derives a combat.AttackInput for a melee swing.
// Melee attacks have no aiming/burst system and no matching weapon skill
// bonus beyond what weaponSkillName resolves (§4.5: "other weapon type
// gives 0").
func (g *GameLoop) buildMeleeAttackInput(ch, target *entitystore.Character, self, other *entitystore.Unit, w *weapon.Weapon, tick uint64, defenseRoll int) combat.AttackInput {
	distFt := pixelDistance(self, other) / g.Cfg.PixelsPerFoot
	return combat.AttackInput{
		DistanceFt:                       distFt,
		MaxRangeFt:                       w.EngagementDistanceFt(),
		ShooterDexterity:                 ch.Dexterity,
		ShooterCoolness:                  ch.Coolness,
		StressBase:                       g.Cfg.StressBase,
		WeaponAccuracy:                   w.Accuracy,
		WeaponDamage:                     w.Damage,
		ShooterMoving:                    self.HasTarget,
		ShooterMovementType:              g.effectiveMovementType(ch),
		FiringState:                      combat.FiringFromAiming,
		AimingModifier:                   0,
		BurstPenalty:                     0,
		TargetPerpendicularSpeedFtPerSec: g.targetPerpendicularSpeed(self, other, target),
		ShooterWounds:                    ch.Wounds,
		ShooterDominantArm:               combat.DominantArm(ch.Handedness),
		SkillLevel:                       ch.SkillLevel(weaponSkillName(w)),
		VeryCarefulActive:                false,
		TargetStance:                     target.Stance,
		UnexpiredBraveryFailures:         ch.UnexpiredBraveryFailures(tick, g.Cfg.BraveryPenaltyDurationTicks),
		FirstAttackOnTarget:              ch.FirstAttackOnTarget,
		FirstAttackPenalty:               g.Cfg.FirstAttackPenalty,
		DefenseRoll:                      defenseRoll,
	}
}

func (g *GameLoop) effectiveMovementType(ch *entitystore.Character) entitystore.MovementType {
	left, right := ch.LegWounds()
	return movement.EffectiveMovementType(ch.Movement, left, right)
}

// targetPerpendicularSpeed derives the target's current velocity from its
// movement order (direct position stepping has no native velocity, §4.8)
// and projects it perpendicular to the shooter's line of sight for the
// §4.5 "Target movement" modifier.
func (g *GameLoop) targetPerpendicularSpeed(self, other *entitystore.Unit, target *entitystore.Character) float64 {
	if !other.HasTarget {
		return 0
	}
	dx := other.TargetX - other.X
	dy := other.TargetY - other.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return 0
	}
	speed := g.movement.EffectiveSpeedFtPerSec(g.effectiveMovementType(target))
	vx := dx / dist * speed
	vy := dy / dist * speed
	return movement.PerpendicularSpeedFtPerSec(vx, vy, self.X, self.Y, other.X, other.Y)
}

// checkBraveryWitnesses runs a bravery check for the wounded character
// itself and for any ally within BraveryWitnessRadiusFt (§4.9).
func (g *GameLoop) checkBraveryWitnesses(wounded *entitystore.Character, tick uint64) {
	g.rollBravery(wounded, tick)

	woundedUnit := g.Store.UnitOfCharacter(wounded.ID)
	if woundedUnit == nil {
		return
	}
	for _, other := range g.Store.Characters() {
		if other.ID == wounded.ID || other.IsIncapacitated() {
			continue
		}
		if !g.Factions.IsAllied(other.FactionID, wounded.FactionID) {
			continue
		}
		otherUnit := g.Store.UnitOfCharacter(other.ID)
		if otherUnit == nil {
			continue
		}
		distFt := pixelDistance(woundedUnit, otherUnit) / g.Cfg.PixelsPerFoot
		if distFt <= BraveryWitnessRadiusFt {
			g.rollBravery(other, tick)
		}
	}
}

// rollBravery performs one §4.9 bravery check: target number is
// 50 + coolness_modifier; a roll above that number records a failure.
func (g *GameLoop) rollBravery(ch *entitystore.Character, tick uint64) {
	if ch.IsIncapacitated() {
		return
	}
	target := 50 + combat.StatToModifier(ch.Coolness)
	roll := g.Rng.NextDouble() * 100
	if roll > float64(target) {
		ch.RecordBraveryFailure(tick)
		if g.Events != nil {
			g.Events.EmitSimple(eventlog.TypeBraveryFailure, tick, ch.ID, eventlog.BraveryFailurePayload{CharacterID: ch.ID})
		}
	}
}

// incapacitate marks ch disabled and cancels every one of its pending
// scheduled events (§3 Invariant 4, §8 Invariant 5). WoundSystem.Apply
// already drove CurrentHealth to 0 (or below, clamped); this is the
// owner-cancellation half of incapacitation.
func (g *GameLoop) incapacitate(ch *entitystore.Character, tick uint64) {
	g.Scheduler.CancelOwner(ownerID(ch.ID))
	ch.PersistentAttack = false
	if g.Events != nil {
		g.Events.EmitSimple(eventlog.TypeIncapacitated, tick, ch.ID, eventlog.IncapacitatedPayload{CharacterID: ch.ID})
	}
}

// emitHit records a hit to the event log, if one is attached.
func (g *GameLoop) emitHit(attackerID int64, target *entitystore.Character, outcome combat.Outcome, tick uint64) {
	if g.Events == nil {
		return
	}
	g.Events.EmitSimple(eventlog.TypeHit, tick, attackerID, eventlog.HitPayload{
		AttackerID: attackerID,
		TargetID:   target.ID,
		BodyPart:   int(outcome.BodyPart),
		Severity:   int(outcome.Severity),
		Damage:     outcome.Damage,
		TargetHP:   target.CurrentHealth,
	})
}

// emitWeaponFired records a weapon-fired occurrence to the event log, if
// one is attached.
func (g *GameLoop) emitWeaponFired(attackerID int64, weaponID string, tick uint64) {
	if g.Events == nil {
		return
	}
	g.Events.EmitSimple(eventlog.TypeWeaponFired, tick, attackerID, eventlog.WeaponFiredPayload{
		AttackerID: attackerID,
		WeaponID:   weaponID,
	})
}
