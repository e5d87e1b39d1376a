package movement

import (
	"math"
	"testing"

	"tacticalcore/internal/entitystore"
)

func newCharacter() *entitystore.Character {
	return entitystore.NewCharacter(1, "x", "blue", 50, 50, 50, 50, 100)
}

func TestAdvanceNeverOvershoots(t *testing.T) {
	c := NewController(7, 60, nil)
	u := entitystore.NewUnit(1, 1, 0, 0)
	u.TargetX, u.TargetY, u.HasTarget = 1, 0, true // 1px away, smaller than a run step (1.4 px)

	ch := newCharacter()
	ch.Movement = entitystore.Run
	c.Advance(u, ch, 1)

	if u.HasTarget {
		t.Fatal("unit should have reached a target closer than one step")
	}
	if u.X != 1 || u.Y != 0 {
		t.Fatalf("unit snapped to (%f, %f), want (1, 0)", u.X, u.Y)
	}
}

func TestAdvanceStepBoundedByEffectiveSpeed(t *testing.T) {
	c := NewController(7, 60, nil)
	u := entitystore.NewUnit(1, 1, 0, 0)
	u.TargetX, u.TargetY, u.HasTarget = 10000, 0, true

	ch := newCharacter()
	ch.Movement = entitystore.Walk
	c.Advance(u, ch, 1)

	maxStep := c.StepPixelsPerTick(entitystore.Walk)
	moved := math.Hypot(u.X, u.Y)
	if moved > maxStep+1e-9 {
		t.Fatalf("moved %f px, exceeds max step %f", moved, maxStep)
	}
}

func TestIncapacitatedUnitDoesNotMove(t *testing.T) {
	c := NewController(7, 60, nil)
	u := entitystore.NewUnit(1, 1, 0, 0)
	u.TargetX, u.TargetY, u.HasTarget = 100, 0, true

	ch := newCharacter()
	ch.CurrentHealth = 0
	c.Advance(u, ch, 1)

	if u.X != 0 || u.Y != 0 {
		t.Fatalf("incapacitated unit moved to (%f, %f)", u.X, u.Y)
	}
}

func TestBothLegsWoundedForcesCrawl(t *testing.T) {
	got := EffectiveMovementType(entitystore.Run, true, true)
	if got != entitystore.Crawl {
		t.Fatalf("EffectiveMovementType = %v, want Crawl", got)
	}
}

func TestSingleLegWoundDisablesRun(t *testing.T) {
	got := EffectiveMovementType(entitystore.Run, true, false)
	if got != entitystore.Jog {
		t.Fatalf("EffectiveMovementType = %v, want Jog (run disabled)", got)
	}
}

func TestRotationSnapsUnderThreshold(t *testing.T) {
	c := NewController(7, 60, nil)
	u := entitystore.NewUnit(1, 1, 0, 0)
	u.Facing = 10

	// Heading due north (0 deg) is only 10 deg away, under the 15 deg snap threshold.
	c.RotateTowardTarget(u, 0, -100)
	if u.Facing != 0 {
		t.Fatalf("Facing = %f, want instant snap to 0", u.Facing)
	}
	if u.Rotating {
		t.Fatal("Rotating should be false after a snap")
	}
}

func TestRotationStepsAtFixedRate(t *testing.T) {
	c := NewController(7, 60, nil)
	u := entitystore.NewUnit(1, 1, 0, 0)
	u.Facing = 0

	// Heading due east (90 deg) is far more than the snap threshold away.
	c.RotateTowardTarget(u, 100, 0)
	if u.Facing != RotationDegreesPerTick {
		t.Fatalf("Facing = %f, want %f", u.Facing, RotationDegreesPerTick)
	}
	if !u.Rotating {
		t.Fatal("Rotating should be true mid-turn")
	}
}

func TestWalkStepMatchesLiteralSpecBound(t *testing.T) {
	// §4.8: base speed is 42 px/s; a walk (x1 multiplier) at 60 ticks/sec
	// steps 42/60 = 0.7 px/tick, independent of pixelsPerFoot.
	c := NewController(7, 60, nil)
	got := c.StepPixelsPerTick(entitystore.Walk)
	want := 0.7
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("StepPixelsPerTick(Walk) = %f, want %f", got, want)
	}
}

func TestEffectiveSpeedFtPerSecDividesByPixelsPerFoot(t *testing.T) {
	c := NewController(7, 60, nil)
	got := c.EffectiveSpeedFtPerSec(entitystore.Walk)
	want := 42.0 / 7.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("EffectiveSpeedFtPerSec(Walk) = %f, want %f", got, want)
	}
}

func TestPerpendicularSpeedOfStationaryTargetIsZero(t *testing.T) {
	got := PerpendicularSpeedFtPerSec(0, 0, 0, 0, 10, 0)
	if got != 0 {
		t.Fatalf("PerpendicularSpeedFtPerSec = %f, want 0", got)
	}
}

func TestPerpendicularSpeedPureCrossingMotion(t *testing.T) {
	// Shooter at origin, target 10 units east; target moving straight north
	// (perpendicular to the line of sight) at 5 ft/s.
	got := PerpendicularSpeedFtPerSec(0, 5, 0, 0, 10, 0)
	if math.Abs(got-5) > 1e-9 {
		t.Fatalf("PerpendicularSpeedFtPerSec = %f, want 5", got)
	}
}
