// Package movement advances unit positions toward their movement target
// and rotates facing toward the direction of travel or a combat target,
// per §4.8.
//
// Grounded on the teacher's Player.Update velocity-with-speed-limit body
// (player.go: compute velocity, clamp to maxSpeed) and ResolveCollisions'
// spatial-grid neighbor query, generalized from continuous velocity +
// friction into the deterministic capped-speed, never-overshoot,
// fixed-degrees-per-tick rotation model §4.8 specifies.
package movement

import (
	"math"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/spatial"
)

// BaseSpeedPxPerSec is a character's base movement speed before the
// movement-type multiplier and wound restrictions (§4.8): 42 px/s, not
// 42 ft/s.
const BaseSpeedPxPerSec = 42.0

// movementMultiplier maps a movement type to its speed multiplier (§4.8).
func movementMultiplier(t entitystore.MovementType) float64 {
	switch t {
	case entitystore.Crawl:
		return 0.25
	case entitystore.Walk:
		return 1.0
	case entitystore.Jog:
		return 1.5
	case entitystore.Run:
		return 2.0
	default:
		return 1.0
	}
}

// RotationDegreesPerTick is the fixed facing-rotation rate (§4.8).
const RotationDegreesPerTick = 6.0

// RotationSnapThresholdDegrees: rotations under this snap instantly rather
// than stepping (§4.8).
const RotationSnapThresholdDegrees = 15.0

// EffectiveMovementType applies the wound-based movement restriction of
// §4.5 ("both legs wounded forces movement <= crawl ... a single leg wound
// disables run") on top of a character's selected movement type.
func EffectiveMovementType(selected entitystore.MovementType, leftLegWounded, rightLegWounded bool) entitystore.MovementType {
	if leftLegWounded && rightLegWounded {
		return entitystore.Crawl
	}
	if (leftLegWounded || rightLegWounded) && selected == entitystore.Run {
		return entitystore.Jog
	}
	return selected
}

// EffectiveSpeedPxPerSec returns a character's movement speed in px/s
// after the movement-type multiplier.
func EffectiveSpeedPxPerSec(movementType entitystore.MovementType) float64 {
	return BaseSpeedPxPerSec * movementMultiplier(movementType)
}

// EffectiveSpeedFtPerSec returns a character's movement speed in ft/s,
// converting the px/s base speed with pixelsPerFoot. Used only where a
// velocity needs to be expressed in ft/s, e.g. the §4.5 target-movement
// accuracy modifier.
func EffectiveSpeedFtPerSec(movementType entitystore.MovementType, pixelsPerFoot float64) float64 {
	return EffectiveSpeedPxPerSec(movementType) / pixelsPerFoot
}

// Controller advances unit positions and facings. cellSize should match
// the largest query radius used by callers sharing the same Grid (see
// internal/spatial).
type Controller struct {
	pixelsPerFoot  float64
	ticksPerSecond int
	grid           *spatial.Grid
}

// NewController returns a Controller. grid may be nil if unit-vs-unit
// separation is not required by the caller (e.g. in unit tests exercising
// movement in isolation).
func NewController(pixelsPerFoot float64, ticksPerSecond int, grid *spatial.Grid) *Controller {
	return &Controller{pixelsPerFoot: pixelsPerFoot, ticksPerSecond: ticksPerSecond, grid: grid}
}

// EffectiveSpeedFtPerSec returns movementType's effective speed in ft/s,
// using this Controller's configured pixelsPerFoot conversion.
func (c *Controller) EffectiveSpeedFtPerSec(movementType entitystore.MovementType) float64 {
	return EffectiveSpeedFtPerSec(movementType, c.pixelsPerFoot)
}

// StepPixelsPerTick converts a character's effective px/s speed to the
// per-tick pixel step distance used by Advance.
func (c *Controller) StepPixelsPerTick(movementType entitystore.MovementType) float64 {
	pxPerSec := EffectiveSpeedPxPerSec(movementType)
	return pxPerSec / float64(c.ticksPerSecond)
}

// Advance moves unit u one step toward its movement target, never
// overshooting, and clears HasTarget when within 1 pixel of the target
// (§4.8). No-op if the unit is incapacitated or has no target.
func (c *Controller) Advance(u *entitystore.Unit, ch *entitystore.Character, tick uint64) {
	if ch.IsIncapacitated() || !u.HasTarget {
		return
	}

	dx := u.TargetX - u.X
	dy := u.TargetY - u.Y
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		u.HasTarget = false
		u.X = u.TargetX
		u.Y = u.TargetY
		u.LastTickUpdated = tick
		return
	}

	left, right := ch.LegWounds()
	effectiveType := EffectiveMovementType(ch.Movement, left, right)
	step := c.StepPixelsPerTick(effectiveType)

	if step >= dist {
		u.X = u.TargetX
		u.Y = u.TargetY
		u.HasTarget = false
	} else {
		u.X += dx / dist * step
		u.Y += dy / dist * step
	}
	u.LastTickUpdated = tick

	c.rotateToward(u, math.Atan2(dx, -dy))
}

// RotateTowardTarget rotates u's facing toward a combat target position at
// the fixed per-tick rate, without moving u (used when in engagement range
// but not moving, e.g. a ranged shooter tracking a target).
func (c *Controller) RotateTowardTarget(u *entitystore.Unit, targetX, targetY float64) {
	dx := targetX - u.X
	dy := targetY - u.Y
	if dx == 0 && dy == 0 {
		return
	}
	c.rotateToward(u, math.Atan2(dx, -dy))
}

// rotateToward rotates u.Facing toward headingRad (0 = north, clockwise,
// matching §3's facing convention) by at most RotationDegreesPerTick,
// snapping instantly if the remaining delta is under
// RotationSnapThresholdDegrees (§4.8).
func (c *Controller) rotateToward(u *entitystore.Unit, headingRad float64) {
	targetDeg := normalizeDegrees(headingRad * 180 / math.Pi)
	u.TargetFacing = targetDeg

	delta := normalizeDegrees(targetDeg - u.Facing)
	if delta > 180 {
		delta -= 360
	}

	if math.Abs(delta) < RotationSnapThresholdDegrees {
		u.Facing = targetDeg
		u.Rotating = false
		return
	}

	u.Rotating = true
	if delta > 0 {
		u.Facing = normalizeDegrees(u.Facing + RotationDegreesPerTick)
	} else {
		u.Facing = normalizeDegrees(u.Facing - RotationDegreesPerTick)
	}
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// PerpendicularSpeedFtPerSec returns the magnitude of the component of a
// moving target's velocity perpendicular to the shooter's line of sight —
// |v x los_unit| — used by the §4.5 "Target movement" accuracy modifier.
// velocity is in ft/s; shooter/target positions are in the same unit as
// each other (pixels is fine, since only direction is used from them).
func PerpendicularSpeedFtPerSec(vxFtPerSec, vyFtPerSec, shooterX, shooterY, targetX, targetY float64) float64 {
	losX := targetX - shooterX
	losY := targetY - shooterY
	losLen := math.Hypot(losX, losY)
	if losLen == 0 {
		return 0
	}
	losX /= losLen
	losY /= losLen
	// 2D cross product magnitude: |v x los_unit|
	return math.Abs(vxFtPerSec*losY - vyFtPerSec*losX)
}
