// Package weapon holds weapon data and the table-driven state machine that
// governs how a weapon moves between named states (sheathed, drawing,
// ready, aiming, firing, recovering, and their melee equivalents).
//
// Grounded on the teacher's Weapons table in weapons.go, generalized from a
// flat damage/range/cooldown record into the spec's richer per-weapon data
// plus a shared state machine keyed on weapon kind rather than hand-written
// per-weapon branches (per-weapon state logic duplication is exactly what
// §9 of the design notes warns against).
package weapon

// Kind distinguishes a ranged weapon's progression from a melee weapon's.
type Kind int

const (
	Ranged Kind = iota
	Melee
)

// FiringMode selects how a ranged weapon discharges on a single trigger
// pull. Not applicable to melee weapons.
type FiringMode int

const (
	SingleShot FiringMode = iota
	Burst
	FullAuto
)

// Weapon is named equipment usable by a character.
type Weapon struct {
	ID          string
	DisplayName string
	Kind        Kind
	Damage      int
	Accuracy    int // weapon accuracy modifier, added into the §4.5 hit-chance sum
	SoundID     string

	// Ranged-only fields. Zero value for melee weapons.
	ProjectileVelocityFtPerSec float64
	MaxRangeFt                 float64
	Ammunition                 int
	FiringDelayTicks           uint64 // recovery after a shot
	CyclicRateTicks            uint64 // ticks between shots within a burst/auto sequence
	BurstSize                  int
	FiringModes                []FiringMode

	// Melee-only field. A base 4 ft character reach is always added on top
	// of this to compute total engagement distance (see EngagementDistanceFt).
	ReachFt float64

	States *StateMachine
}

// BaseCharacterReachFt is added to a melee weapon's reach to get total
// engagement distance, per §3/§6.9 of the engagement-distance invariant.
const BaseCharacterReachFt = 4.0

// EngagementDistanceFt returns the maximum distance, in feet, at which this
// melee weapon may strike. Meaningless for ranged weapons.
func (w *Weapon) EngagementDistanceFt() float64 {
	return BaseCharacterReachFt + w.ReachFt
}

// SupportsMode reports whether mode is one of the weapon's available firing
// modes.
func (w *Weapon) SupportsMode(mode FiringMode) bool {
	for _, m := range w.FiringModes {
		if m == mode {
			return true
		}
	}
	return false
}

// catalog is the table of all known weapons, keyed by ID — mirrors the
// teacher's Weapons map in shape, with the spec's richer per-weapon fields.
var catalog = map[string]*Weapon{
	"fists": {
		ID: "fists", DisplayName: "Fists", Kind: Melee,
		Damage: 3, Accuracy: 10, SoundID: "punch",
		ReachFt: 0, States: meleeStateMachine(),
	},
	"bowie_knife": {
		ID: "bowie_knife", DisplayName: "Bowie Knife", Kind: Melee,
		Damage: 6, Accuracy: 5, SoundID: "knife_swing",
		ReachFt: 1, States: meleeStateMachine(),
	},
	"sword": {
		ID: "sword", DisplayName: "Sword", Kind: Melee,
		Damage: 10, Accuracy: 0, SoundID: "sword_swing",
		ReachFt: 2.5, States: meleeStateMachine(),
	},
	"spear": {
		ID: "spear", DisplayName: "Spear", Kind: Melee,
		Damage: 8, Accuracy: -5, SoundID: "spear_thrust",
		ReachFt: 5, States: meleeStateMachine(),
	},
	"pistol": {
		ID: "pistol", DisplayName: "Pistol", Kind: Ranged,
		Damage: 8, Accuracy: 0, SoundID: "pistol_shot",
		ProjectileVelocityFtPerSec: 1100, MaxRangeFt: 150,
		Ammunition: 6, FiringDelayTicks: 60, CyclicRateTicks: 15, BurstSize: 1,
		FiringModes: []FiringMode{SingleShot},
		States:      rangedStateMachine(),
	},
	"rifle": {
		ID: "rifle", DisplayName: "Rifle", Kind: Ranged,
		Damage: 12, Accuracy: 10, SoundID: "rifle_shot",
		ProjectileVelocityFtPerSec: 2800, MaxRangeFt: 600,
		Ammunition: 30, FiringDelayTicks: 30, CyclicRateTicks: 6, BurstSize: 3,
		FiringModes: []FiringMode{SingleShot, Burst, FullAuto},
		States:      rangedStateMachine(),
	},
	"submachine_gun": {
		ID: "submachine_gun", DisplayName: "Submachine Gun", Kind: Ranged,
		Damage: 7, Accuracy: -5, SoundID: "smg_shot",
		ProjectileVelocityFtPerSec: 1200, MaxRangeFt: 120,
		Ammunition: 30, FiringDelayTicks: 18, CyclicRateTicks: 4, BurstSize: 3,
		FiringModes: []FiringMode{SingleShot, Burst, FullAuto},
		States:      rangedStateMachine(),
	},
}

// Get returns a catalog weapon by id and whether it was found. Unlike the
// teacher's GetWeapon, there is no silent "fists" fallback — a missing
// weapon id at equip time is a caller error that should surface, not be
// masked, since the simulation's determinism depends on an explicit
// weapon load-out.
func Get(id string) (*Weapon, bool) {
	w, ok := catalog[id]
	return w, ok
}

// All returns every catalog weapon.
func All() []*Weapon {
	out := make([]*Weapon, 0, len(catalog))
	for _, w := range catalog {
		out = append(out, w)
	}
	return out
}
