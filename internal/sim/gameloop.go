// Package sim provides GameLoop: the per-tick orchestrator that ties the
// clock, scheduler, entity store, weapon state machine, targeting,
// movement, and combat resolution packages together into the strict
// ordering §5 requires (advance clock -> drain due events -> auto-target
// -> move).
//
// Grounded on the teacher's Engine.tick() (engine.go): the same
// lock-drain-update-broadcast shape, generalized from a wall-clock
// time.Ticker loop into an orchestrator-stepped one (internal/simclock)
// and from the teacher's single hard-coded combat/movement pass into the
// package composition spec.md's component table describes.
package sim

import (
	"fmt"
	"log"
	"math"

	"tacticalcore/internal/aiming"
	"tacticalcore/internal/combat"
	"tacticalcore/internal/config"
	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/eventlog"
	"tacticalcore/internal/factionrel"
	"tacticalcore/internal/movement"
	"tacticalcore/internal/simclock"
	"tacticalcore/internal/simqueue"
	"tacticalcore/internal/simrand"
	"tacticalcore/internal/spatial"
	"tacticalcore/internal/targeting"
	"tacticalcore/internal/weapon"
)

// HitEvent mirrors the §6 "Exposed to external collaborators" on_hit
// event: (attacker_id, target_id, body_part, severity, damage, tick).
type HitEvent struct {
	AttackerID int64
	TargetID   int64
	BodyPart   entitystore.BodyPart
	Severity   entitystore.WoundSeverity
	Damage     int
	Tick       uint64
}

// FiredEvent mirrors §6's on_weapon_fired(attacker_id, weapon_id) hook.
type FiredEvent struct {
	AttackerID int64
	WeaponID   string
	Tick       uint64
}

// GameLoop orchestrates one tick of simulation across every core
// component. Construct with NewGameLoop; call Tick() once per simulated
// frame (60 times per simulated second per §2).
type GameLoop struct {
	Clock     *simclock.GameClock
	Scheduler *simqueue.EventScheduler
	Store     *entitystore.Store
	Factions  *factionrel.Table
	Rng       *simrand.RandomProvider
	Cfg       config.SimConfig

	Aiming    *aiming.System
	Burst     *aiming.BurstFireManager
	Defense   *combat.DefenseManager
	Wounds    *combat.WoundSystem
	targeting *targeting.Controller
	movement  *movement.Controller

	// Events, when non-nil, receives a bounded, rate-limited record of every
	// tick boundary, shot, hit, incapacitation, and bravery failure — an
	// internal consumer of the same occurrences OnWeaponFired/OnHit expose
	// externally. Set it after NewGameLoop and call Events.Start before
	// the first Tick if persistence is wanted; nil means no recording.
	Events *eventlog.Log

	// OnWeaponFired and OnHit are the §6 event hooks. Both are optional;
	// nil means no external collaborator is listening this run.
	OnWeaponFired func(FiredEvent)
	OnHit         func(HitEvent)
}

// NewGameLoop wires every core package into a GameLoop. grid may be nil
// (movement runs without unit-vs-unit separation).
func NewGameLoop(cfg config.SimConfig, store *entitystore.Store, factions *factionrel.Table, rng *simrand.RandomProvider, grid *spatial.Grid) *GameLoop {
	return &GameLoop{
		Clock:     simclock.NewGameClock(),
		Scheduler: simqueue.NewEventScheduler(),
		Store:     store,
		Factions:  factions,
		Rng:       rng,
		Cfg:       cfg,
		Aiming:    aiming.NewSystem(),
		Burst:     aiming.NewBurstFireManager(),
		Defense:   combat.NewDefenseManager(cfg.DefenseCooldownTicks),
		Wounds:    combat.NewWoundSystem(),
		targeting: targeting.NewController(store, factions),
		movement:  movement.NewController(cfg.PixelsPerFoot, cfg.TicksPerSecond, grid),
	}
}

// ownerID tags every scheduled event belonging to a character, so a new
// attack sequence (or incapacitation) can cancel every pending event of
// the previous one in one call (§3 Invariant 5, §4.1 "removal-by-owner").
func ownerID(characterID int64) string {
	return fmt.Sprintf("char:%d", characterID)
}

// Tick advances the simulation by exactly one tick, in the strict order
// §5 specifies:
//  1. advance the clock
//  2. drain all events due at or before the new tick
//  3. run auto-targeting, in character-id order
//  4. run movement + rotation, in unit-id order
func (g *GameLoop) Tick() uint64 {
	tick := g.Clock.Advance()
	if g.Clock.Paused() {
		return tick
	}
	if g.Events != nil {
		g.Events.EmitSimple(eventlog.TypeTick, tick, 0, nil)
	}

	g.Scheduler.DrainDue(tick)

	units := g.Store.Units()
	g.movement.RebuildGrid(units, g.Store.Character)

	for _, ch := range g.Store.Characters() {
		if ch.IsIncapacitated() {
			continue
		}
		g.updateCharacter(ch, tick)
	}

	for i, u := range units {
		ch := g.Store.CharacterOf(u)
		if ch == nil || ch.IsIncapacitated() {
			continue
		}
		g.movement.Advance(u, ch, tick)
		g.movement.Separate(u, uint32(i), units, g.Store.Character)
	}

	return tick
}

// updateCharacter runs the §4.7 auto-targeting pass for one character and,
// if it is engaged with a live target, drives its weapon toward an attack
// (starting a new state-machine sequence, closing distance, or just
// tracking facing), per §4.7's "Attack continuation".
func (g *GameLoop) updateCharacter(ch *entitystore.Character, tick uint64) {
	if !ch.AutoTargeting {
		return
	}
	retargeted := g.targeting.Update(ch, g.Store.UnitOfCharacter(ch.ID), tick)
	if retargeted {
		g.Aiming.Clear(ch.ID)
		g.Burst.EndSequence(ch.ID)
		if g.Events != nil {
			g.Events.EmitSimple(eventlog.TypeRetarget, tick, ch.ID, eventlog.RetargetPayload{CharacterID: ch.ID, TargetID: ch.CurrentTargetID})
		}
	}

	if ch.CurrentTargetID == nil {
		return
	}
	if tick <= ch.RecoveryUntil || tick <= ch.HesitationUntil {
		return
	}

	target := g.Store.Character(*ch.CurrentTargetID)
	if target == nil || target.IsIncapacitated() {
		return
	}
	self := g.Store.UnitOfCharacter(ch.ID)
	other := g.Store.UnitOfCharacter(target.ID)
	if self == nil || other == nil {
		return
	}

	w := ch.ActiveWeapon()
	if w == nil {
		return
	}

	distFt := pixelDistance(self, other) / g.Cfg.PixelsPerFoot

	if w.Kind == weapon.Ranged {
		g.driveRangedEngagement(ch, self, target, other, w, distFt, tick)
	} else {
		g.driveMeleeEngagement(ch, self, target, other, w, distFt, tick)
	}
}

func pixelDistance(a, b *entitystore.Unit) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// driveRangedEngagement starts a fresh fire sequence from an idle state,
// or otherwise just keeps the shooter's facing on the target (§4.7: "waits
// if unable to fire" for ranged). A shooter whose weapon is mid-transition
// is left alone; the event chain already scheduled will carry it forward.
func (g *GameLoop) driveRangedEngagement(ch *entitystore.Character, self *entitystore.Unit, target *entitystore.Character, other *entitystore.Unit, w *weapon.Weapon, distFt float64, tick uint64) {
	g.movement.RotateTowardTarget(self, other.X, other.Y)

	if distFt > w.MaxRangeFt {
		return
	}
	if ch.WeaponState != weapon.Sheathed && ch.WeaponState != weapon.Ready {
		return
	}
	// §7 out-of-ammo at attack initiation: abandon the attack, auto-targeting
	// retries next tick (a no-op here until ammo changes, since there is no
	// reload operation).
	if ch.RangedAmmoRemaining <= 0 {
		return
	}
	g.startSequence(ch, tick)
}

// driveMeleeEngagement closes distance if the target has moved out of
// engagement range, otherwise starts a fresh melee swing from an idle
// state (§4.7).
func (g *GameLoop) driveMeleeEngagement(ch *entitystore.Character, self *entitystore.Unit, target *entitystore.Character, other *entitystore.Unit, w *weapon.Weapon, distFt float64, tick uint64) {
	if distFt > w.EngagementDistanceFt() {
		self.TargetX, self.TargetY = other.X, other.Y
		self.HasTarget = true
		return
	}
	self.HasTarget = false
	g.movement.RotateTowardTarget(self, other.X, other.Y)

	if ch.WeaponState != weapon.Sheathed && ch.WeaponState != weapon.MeleeReady {
		return
	}
	g.startSequence(ch, tick)
}

// startSequence cancels any stale pending events for ch (§3 Invariant 5)
// and schedules the next weapon-state transition from its current state.
func (g *GameLoop) startSequence(ch *entitystore.Character, tick uint64) {
	g.Scheduler.CancelOwner(ownerID(ch.ID))
	g.scheduleNextTransition(ch, tick)
}

// scheduleNextTransition looks up the single legal transition out of ch's
// current weapon state (§4.3, §3 Invariant 7) and schedules it. An
// undeclared transition is the §7 "invalid transition" error kind: logged
// and ignored, leaving the character in its current state.
func (g *GameLoop) scheduleNextTransition(ch *entitystore.Character, tick uint64) {
	w := ch.ActiveWeapon()
	if w == nil {
		return
	}
	trans, ok := w.States.Transition(ch.WeaponState)
	if !ok {
		log.Printf("sim: invalid weapon transition for character %d from state %q", ch.ID, ch.WeaponState)
		return
	}

	ticks := g.transitionTicks(ch, w, trans)
	due := tick + ticks
	owner := ownerID(ch.ID)
	next := trans.Next
	g.Scheduler.Schedule(due, owner, func() {
		g.onTransition(ch, next, due)
	})
}

// transitionTicks returns the tick cost of trans, substituting the
// per-aiming-speed hold from aimingHoldTicks for the fixed table cost of the
// Aiming->Firing edge (the only edge whose duration is chosen by the
// shooter rather than fixed weapon/reflex data — see DESIGN.md).
func (g *GameLoop) transitionTicks(ch *entitystore.Character, w *weapon.Weapon, trans weapon.Transition) uint64 {
	if trans.Next == weapon.Firing {
		return aimingHoldTicks(ch.AimingSpeed)
	}
	quickdraw := ch.SkillLevel(entitystore.SkillQuickdraw)
	return weapon.EffectiveTicks(trans, ch.Reflexes, quickdraw)
}

// aimingHoldTicks is how long a shooter lingers in Aiming before actually
// firing, for each selected aiming speed. Careful/Very Careful hold
// exactly long enough to cross their §4.4 accumulated-bonus thresholds;
// Quick fires almost immediately. spec.md names the timing multiplier
// column but not concrete tick counts, so this implementation anchors
// Careful/Very Careful directly to aiming.CarefulThresholdTicks/
// VeryCarefulThresholdTicks (see DESIGN.md's Implementer decisions).
func aimingHoldTicks(speed entitystore.AimingSpeed) uint64 {
	switch speed {
	case entitystore.Quick:
		return 5
	case entitystore.Normal:
		return 10
	case entitystore.Careful:
		return aiming.CarefulThresholdTicks
	case entitystore.VeryCareful:
		return aiming.VeryCarefulThresholdTicks
	default:
		return 10
	}
}

// onTransition fires when a scheduled weapon-state transition comes due.
// It is the scheduler Action closure's body: ch may have been incapacitated
// (and its pending events cancelled) between scheduling and firing, in
// which case this never runs at all — so the guard below only covers the
// same-tick race where incapacitation and this transition are scheduled
// for the identical tick (§5 "both impacts still apply").
func (g *GameLoop) onTransition(ch *entitystore.Character, next weapon.State, tick uint64) {
	if ch.IsIncapacitated() {
		return
	}
	ch.WeaponState = next

	switch next {
	case weapon.Aiming:
		g.Aiming.StartAiming(ch.ID, tick)
		g.scheduleNextTransition(ch, tick)
	case weapon.Firing:
		g.fireRangedShot(ch, tick)
	case weapon.MeleeAttacking:
		g.resolveMeleeImpact(ch, tick)
	case weapon.Recovering:
		w := ch.ActiveWeapon()
		if w != nil {
			ch.RecoveryUntil = tick + w.FiringDelayTicks
		}
		g.scheduleNextTransition(ch, tick)
	case weapon.MeleeRecovering:
		// tick cost of reaching here already encodes the recovery window
		// (see resolveMeleeImpact, which overrides the table's default via
		// a direct Schedule call rather than scheduleNextTransition).
		g.scheduleNextTransition(ch, tick)
	case weapon.Ready, weapon.MeleeReady, weapon.Sheathed:
		// Idle: the next tick's auto-targeting pass decides whether to
		// start another sequence.
	default:
		g.scheduleNextTransition(ch, tick)
	}
}
