// Package combat implements the hit-chance/wound/damage resolution
// pipeline (CombatResolver), the cooldown-gated melee DefenseManager, and
// the WoundSystem/BraveryTracker pair.
//
// Grounded on the teacher's CombatManager.ResolveCombat (combat.go) for
// the overall shooter-iteration/cooldown-gate/resolve shape, Hitbox.CheckHit
// (hitbox.go) for the melee engagement-distance check, and CombatState's
// cooldown-gated CanDodge/StartDodge ability (combat.go), repurposed here
// as defense-on-incoming-attack.
package combat

// lowerHalfAnchors gives the explicit stat-to-modifier anchors for stats
// 1..6, normative per §6.
var lowerHalfAnchors = [...]int{-20, -19, -18, -17, -16, -15}

// lowerHalf computes the stat-to-modifier value for a clamped stat in
// [1, 50]: the explicit anchors for 1..6, then a monotone non-decreasing
// linear ramp from -15 at stat 6 to 0 at stat 50.
func lowerHalf(stat int) int {
	if stat <= 6 {
		return lowerHalfAnchors[stat-1]
	}
	// Linear interpolation from -15 (stat=6) to 0 (stat=50).
	num := -15 * (50 - stat)
	den := 50 - 6
	// Round to nearest integer (num is <= 0, den > 0).
	if num >= 0 {
		return (num + den/2) / den
	}
	return -((-num + den/2) / den)
}

// StatToModifier maps a character stat (dexterity, coolness, etc.), clamped
// to [1, 100], to its accuracy modifier. Mirror-symmetric around 50/51,
// both of which map to 0: stat_to_modifier(50-i) == -stat_to_modifier(51+i)
// for i in 0..49 (§6, §8 Invariant 7). The table is normative and must
// match the §6 anchors.
func StatToModifier(stat int) int {
	if stat < 1 {
		stat = 1
	}
	if stat > 100 {
		stat = 100
	}
	if stat <= 50 {
		return lowerHalf(stat)
	}
	mirrorStat := 101 - stat // maps 51->50 .. 100->1
	return -lowerHalf(mirrorStat)
}
