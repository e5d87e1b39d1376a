// Package aiming tracks per-character aiming/pointed-from-hip duration and
// burst-fire shot sequencing — the two timer-driven inputs to the §4.5
// hit-chance pipeline's "Aiming speed" and "Burst/auto penalty" rows.
//
// Grounded on the teacher's CombatState (combat.go): a per-character,
// tick-counted timer struct (ComboWindow, DodgeTimer, InvulnFrames) with a
// single UpdateTimers() entry point called once per tick. AimingSystem and
// BurstFireManager follow the same per-character timer-map shape.
package aiming

import "tacticalcore/internal/entitystore"

// Tick thresholds at which the Careful / Very Careful aiming bonus kicks
// in. spec.md's §4.4 table names the bonus but not the concrete tick
// counts; these values (1s and 2s of sustained aiming) are this
// implementation's documented choice — see DESIGN.md's Implementer
// decisions.
const (
	CarefulThresholdTicks     uint64 = 60
	VeryCarefulThresholdTicks uint64 = 120
)

// timers holds one character's mutually-exclusive aiming state. Starting
// one clears the other (§4.4).
type timers struct {
	aimingStartedAt         uint64
	aiming                  bool
	pointingFromHipStartedAt uint64
	pointingFromHip         bool
}

// System tracks aiming timers for every character currently tracked.
type System struct {
	byCharacter map[int64]*timers
}

// NewSystem returns an empty AimingSystem.
func NewSystem() *System {
	return &System{byCharacter: make(map[int64]*timers)}
}

func (s *System) entry(charID int64) *timers {
	t, ok := s.byCharacter[charID]
	if !ok {
		t = &timers{}
		s.byCharacter[charID] = t
	}
	return t
}

// StartAiming begins (or restarts) the aiming timer for charID at tick,
// clearing any pointed-from-hip timer.
func (s *System) StartAiming(charID int64, tick uint64) {
	t := s.entry(charID)
	t.aiming = true
	t.aimingStartedAt = tick
	t.pointingFromHip = false
}

// StartPointingFromHip begins (or restarts) the pointed-from-hip timer for
// charID at tick, clearing any aiming timer.
func (s *System) StartPointingFromHip(charID int64, tick uint64) {
	t := s.entry(charID)
	t.pointingFromHip = true
	t.pointingFromHipStartedAt = tick
	t.aiming = false
}

// Clear resets both timers for charID, e.g. on weapon holster or death.
func (s *System) Clear(charID int64) {
	delete(s.byCharacter, charID)
}

// PointingFromHip reports whether charID is currently firing from the hip
// rather than aiming — feeds the §4.5 "Firing-state" modifier row.
func (s *System) PointingFromHip(charID int64) bool {
	t, ok := s.byCharacter[charID]
	return ok && t.pointingFromHip
}

// AccumulatedBonus computes the accumulated aiming bonus at tick for
// charID per the §4.4 table. Returns the bonus to use in place of the
// selected aiming speed's own modifier (0 if no accumulated bonus
// applies, in which case the caller falls back to the selected-speed
// modifier) and whether Very Careful's doubled-skill benefit is active
// (which also waives the first-attack penalty per §4.5).
//
// skillLevel is the character's level in the weapon's matching skill;
// Very Careful requires skillLevel >= 1 to become eligible (§9 Open
// Question: the §4.4 table is normative).
func (s *System) AccumulatedBonus(charID int64, tick uint64, speed entitystore.AimingSpeed, skillLevel int) (bonus int, veryCarefulActive bool) {
	t, ok := s.byCharacter[charID]
	if !ok || !t.aiming {
		return 0, false
	}
	elapsed := uint64(0)
	if tick > t.aimingStartedAt {
		elapsed = tick - t.aimingStartedAt
	}

	switch speed {
	case entitystore.VeryCareful:
		if elapsed >= VeryCarefulThresholdTicks && skillLevel >= 1 {
			return 15, true
		}
		return 0, false
	case entitystore.Careful:
		if elapsed >= CarefulThresholdTicks {
			return 15, false
		}
		return 0, false
	default:
		return 0, false
	}
}

// TimingMultiplier returns the §4.4 table's "Timing multiplier" column
// value for an aiming speed, relative to Normal. Quick is the fastest.
// internal/sim does not call it: the Aiming hold before a shot comes from
// that package's aimingHoldTicks.
func TimingMultiplier(speed entitystore.AimingSpeed) float64 {
	switch speed {
	case entitystore.Quick:
		return 0.5
	case entitystore.Normal:
		return 1.0
	case entitystore.Careful:
		return 2.0
	case entitystore.VeryCareful:
		return 3.0
	default:
		return 1.0
	}
}
