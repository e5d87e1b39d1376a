// Package targeting implements AutoTargetingController: the per-tick
// nearest-hostile search and persistent-attack bookkeeping of §4.7.
//
// Grounded on the teacher's Player.findTarget (player.go): a spatial-grid
// candidate query with fallback to a global nearest-enemy scan, generalized
// from the teacher's single always-on grid into the hostile/zone-aware
// nearest-hostile rule of §4.7.
package targeting

import (
	"math"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/factionrel"
)

// Controller runs the per-tick auto-targeting pass described in §4.7.
type Controller struct {
	store    *entitystore.Store
	factions *factionrel.Table
}

// NewController returns a Controller reading units/characters from store
// and hostility from factions.
func NewController(store *entitystore.Store, factions *factionrel.Table) *Controller {
	return &Controller{store: store, factions: factions}
}

// Update runs the §4.7 per-tick loop for one character. Returns true if the
// character's current target changed (useful for callers that want to
// (re)start an attack sequence on retarget).
func (c *Controller) Update(ch *entitystore.Character, selfUnit *entitystore.Unit, currentTick uint64) (retargeted bool) {
	if ch.IsIncapacitated() || !ch.AutoTargeting {
		return false
	}
	if currentTick <= ch.RecoveryUntil || currentTick <= ch.HesitationUntil {
		return false
	}

	if ch.CurrentTargetID != nil {
		target := c.store.Character(*ch.CurrentTargetID)
		if target != nil && !target.IsIncapacitated() && c.factions.IsHostile(ch.FactionID, target.FactionID) {
			return false // retain current target
		}
	}

	chosen := c.selectTarget(ch, selfUnit)
	if chosen == nil {
		hadTarget := ch.CurrentTargetID != nil
		ch.CurrentTargetID = nil
		ch.PersistentAttack = false
		return hadTarget
	}

	prev := ch.CurrentTargetID
	ch.CurrentTargetID = &chosen.ID
	ch.PersistentAttack = true
	ch.FirstAttackOnTarget = true
	return prev == nil || *prev != chosen.ID
}

// selectTarget finds the nearest hostile, non-incapacitated character to
// self, preferring candidates inside self's target zone if one is set and
// non-empty; falls back to the global nearest hostile otherwise (§9 Open
// Question: adopted behavior).
func (c *Controller) selectTarget(self *entitystore.Character, selfUnit *entitystore.Unit) *entitystore.Character {
	var zoneNearest, globalNearest *entitystore.Character
	var zoneDist, globalDist float64 = math.MaxFloat64, math.MaxFloat64

	for _, other := range c.store.Characters() {
		if other.ID == self.ID || other.IsIncapacitated() {
			continue
		}
		if !c.factions.IsHostile(self.FactionID, other.FactionID) {
			continue
		}
		otherUnit := c.store.UnitOfCharacter(other.ID)
		if otherUnit == nil {
			continue
		}

		dist := math.Hypot(otherUnit.X-selfUnit.X, otherUnit.Y-selfUnit.Y)
		if dist < globalDist {
			globalDist = dist
			globalNearest = other
		}
		if self.TargetZone != nil && self.TargetZone.Contains(otherUnit.X, otherUnit.Y) {
			if dist < zoneDist {
				zoneDist = dist
				zoneNearest = other
			}
		}
	}

	if self.TargetZone != nil && zoneNearest != nil {
		return zoneNearest
	}
	return globalNearest
}
