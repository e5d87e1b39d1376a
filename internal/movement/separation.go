package movement

import (
	"math"

	"tacticalcore/internal/entitystore"
)

// UnitRadiusPx is the collision radius used for unit-vs-unit separation,
// carried from the teacher's ResolveCollisions (player.go: radius = 28).
const UnitRadiusPx = 28.0

// Separate pushes unit u apart from any nearby unit it overlaps, querying
// the controller's spatial grid for candidates. Grounded directly on the
// teacher's ResolveCollisions: push-apart-by-overlap along the normalized
// separation vector, with no velocity/bounce term since units here move by
// direct position stepping rather than velocity integration (§4.8 has no
// concept of unit momentum).
//
// units must be indexed identically to how they were inserted into the
// controller's grid (caller's responsibility, mirroring the teacher's
// index-aligned playerSlice/grid pairing).
func (c *Controller) Separate(self *entitystore.Unit, selfIdx uint32, units []*entitystore.Unit, characters func(characterID int64) *entitystore.Character) {
	if c.grid == nil {
		return
	}
	const collisionRadius = UnitRadiusPx * 2
	candidates := c.grid.QueryRadius(self.X, self.Y, collisionRadius+10)

	for _, idx := range candidates {
		if idx == selfIdx {
			continue
		}
		if int(idx) >= len(units) {
			continue
		}
		other := units[idx]
		otherChar := characters(other.CharacterID)
		if otherChar != nil && otherChar.IsIncapacitated() {
			continue
		}

		dx := other.X - self.X
		dy := other.Y - self.Y
		dist := math.Hypot(dx, dy)
		minDist := UnitRadiusPx * 2

		if dist > 0 && dist < minDist {
			overlap := minDist - dist
			nx := dx / dist
			ny := dy / dist

			const pushForce = 0.6
			self.X -= nx * overlap * pushForce
			self.Y -= ny * overlap * pushForce
			other.X += nx * overlap * pushForce
			other.Y += ny * overlap * pushForce
		}
	}
}

// RebuildGrid clears and repopulates the controller's spatial grid from
// units, indexed by position in the slice (matching the teacher's
// per-tick grid rebuild in Engine.tick()). No-op if the controller has no
// grid.
func (c *Controller) RebuildGrid(units []*entitystore.Unit, characters func(characterID int64) *entitystore.Character) {
	if c.grid == nil {
		return
	}
	c.grid.Clear()
	for i, u := range units {
		ch := characters(u.CharacterID)
		if ch != nil && ch.IsIncapacitated() {
			continue
		}
		c.grid.Insert(uint32(i), u.X, u.Y)
	}
}
