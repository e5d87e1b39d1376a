// Package persistence flattens the live entitystore.Store into immutable,
// JSON-serializable snapshots for save/load, and a round-trip loader that
// rebuilds a Store from one.
//
// Grounded on the teacher's game_snapshot.go: the same PlayerSnapshot
// idiom of copying mutable struct state into a flat value type before it
// leaves the simulation core, generalized from a per-frame render
// snapshot (triple-buffered, capped slices, reused to avoid allocation)
// into a one-shot save-file shape, since a save file is written rarely
// and needs none of the lock-free renderer plumbing.
package persistence

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/weapon"
)

// WoundSnapshot is an immutable copy of a single wound.
type WoundSnapshot struct {
	BodyPart int `json:"bodyPart"`
	Severity int `json:"severity"`
	Damage   int `json:"damage"`
}

// CharacterSnapshot flattens entitystore.Character into a value type safe
// to marshal: weapons are captured by ID (the catalog, not the instance,
// is the source of truth on load), and every combat-scratch field that
// matters for an exact resume is carried across.
type CharacterSnapshot struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
	FactionID   string `json:"factionId"`

	Dexterity     int `json:"dexterity"`
	Strength      int `json:"strength"`
	Reflexes      int `json:"reflexes"`
	Coolness      int `json:"coolness"`
	MaxHealth     int `json:"maxHealth"`
	CurrentHealth int `json:"currentHealth"`

	Handedness int            `json:"handedness"`
	Skills     map[string]int `json:"skills"`

	RangedWeaponID string `json:"rangedWeaponId,omitempty"`
	MeleeWeaponID  string `json:"meleeWeaponId,omitempty"`
	ActiveRanged   bool   `json:"activeRanged"`
	WeaponState    string `json:"weaponState"`

	Stance      int `json:"stance"`
	Movement    int `json:"movement"`
	AimingSpeed int `json:"aimingSpeed"`
	FiringMode  int `json:"firingMode"`

	CurrentTargetID  *int64 `json:"currentTargetId,omitempty"`
	PersistentAttack bool   `json:"persistentAttack"`
	AutoTargeting    bool   `json:"autoTargeting"`

	FirstAttackOnTarget bool   `json:"firstAttackOnTarget"`
	ShotsInSequence     int    `json:"shotsInSequence"`
	RecoveryUntil       uint64 `json:"recoveryUntil"`
	HesitationUntil     uint64 `json:"hesitationUntil"`

	Wounds          []WoundSnapshot `json:"wounds,omitempty"`
	BraveryFailures []uint64        `json:"braveryFailures,omitempty"`
}

// UnitSnapshot flattens entitystore.Unit.
type UnitSnapshot struct {
	ID              uint32  `json:"id"`
	CharacterID     int64   `json:"characterId"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	TargetX         float64 `json:"targetX,omitempty"`
	TargetY         float64 `json:"targetY,omitempty"`
	HasTarget       bool    `json:"hasTarget"`
	Facing          float64 `json:"facing"`
	TargetFacing    float64 `json:"targetFacing"`
	Rotating        bool    `json:"rotating"`
	LastTickUpdated uint64  `json:"lastTickUpdated"`
}

// Snapshot is the complete on-disk save format: every registered
// Character and Unit, plus the tick it was taken at.
type Snapshot struct {
	FormatVersion int                 `json:"formatVersion"`
	Tick          uint64              `json:"tick"`
	Characters    []CharacterSnapshot `json:"characters"`
	Units         []UnitSnapshot      `json:"units"`
}

// FormatVersion guards the on-disk shape for future migrations.
const FormatVersion = 1

// Capture flattens every Character and Unit in store into a Snapshot at
// the given tick.
func Capture(store *entitystore.Store, tick uint64) Snapshot {
	snap := Snapshot{FormatVersion: FormatVersion, Tick: tick}
	for _, c := range store.Characters() {
		snap.Characters = append(snap.Characters, captureCharacter(c))
	}
	for _, u := range store.Units() {
		snap.Units = append(snap.Units, captureUnit(u))
	}
	return snap
}

func captureCharacter(c *entitystore.Character) CharacterSnapshot {
	cs := CharacterSnapshot{
		ID:                  c.ID,
		DisplayName:         c.DisplayName,
		FactionID:           c.FactionID,
		Dexterity:           c.Dexterity,
		Strength:            c.Strength,
		Reflexes:            c.Reflexes,
		Coolness:            c.Coolness,
		MaxHealth:           c.MaxHealth,
		CurrentHealth:       c.CurrentHealth,
		Handedness:          int(c.Handedness),
		Skills:              c.Skills,
		ActiveRanged:        c.ActiveRanged,
		WeaponState:         string(c.WeaponState),
		Stance:              int(c.Stance),
		Movement:            int(c.Movement),
		AimingSpeed:         int(c.AimingSpeed),
		FiringMode:          int(c.FiringMode),
		CurrentTargetID:     c.CurrentTargetID,
		PersistentAttack:    c.PersistentAttack,
		AutoTargeting:       c.AutoTargeting,
		FirstAttackOnTarget: c.FirstAttackOnTarget,
		ShotsInSequence:     c.ShotsInSequence,
		RecoveryUntil:       c.RecoveryUntil,
		HesitationUntil:     c.HesitationUntil,
		BraveryFailures:     c.BraveryFailures,
	}
	if c.RangedWeapon != nil {
		cs.RangedWeaponID = c.RangedWeapon.ID
	}
	if c.MeleeWeapon != nil {
		cs.MeleeWeaponID = c.MeleeWeapon.ID
	}
	for _, w := range c.Wounds {
		cs.Wounds = append(cs.Wounds, WoundSnapshot{
			BodyPart: int(w.BodyPart),
			Severity: int(w.Severity),
			Damage:   w.Damage,
		})
	}
	return cs
}

func captureUnit(u *entitystore.Unit) UnitSnapshot {
	return UnitSnapshot{
		ID:              u.ID,
		CharacterID:     u.CharacterID,
		X:               u.X,
		Y:               u.Y,
		TargetX:         u.TargetX,
		TargetY:         u.TargetY,
		HasTarget:       u.HasTarget,
		Facing:          u.Facing,
		TargetFacing:    u.TargetFacing,
		Rotating:        u.Rotating,
		LastTickUpdated: u.LastTickUpdated,
	}
}

// Restore rebuilds a fresh entitystore.Store from snap. Weapon instances
// are re-resolved from the live catalog (internal/weapon) by ID; an ID no
// longer in the catalog is a load-time error rather than a silently
// dropped weapon.
func Restore(snap Snapshot) (*entitystore.Store, error) {
	store := entitystore.NewStore()
	for _, cs := range snap.Characters {
		c, err := restoreCharacter(cs)
		if err != nil {
			return nil, errors.Wrapf(err, "persistence: restoring character %d", cs.ID)
		}
		if err := store.RegisterCharacter(c); err != nil {
			return nil, errors.Wrapf(err, "persistence: registering character %d", cs.ID)
		}
	}
	for _, us := range snap.Units {
		u := entitystore.NewUnit(us.ID, us.CharacterID, us.X, us.Y)
		u.HasTarget = us.HasTarget
		u.TargetX = us.TargetX
		u.TargetY = us.TargetY
		u.Facing = us.Facing
		u.TargetFacing = us.TargetFacing
		u.Rotating = us.Rotating
		u.LastTickUpdated = us.LastTickUpdated
		if err := store.RegisterUnit(u); err != nil {
			return nil, errors.Wrapf(err, "persistence: registering unit %d", us.ID)
		}
	}
	return store, nil
}

func restoreCharacter(cs CharacterSnapshot) (*entitystore.Character, error) {
	c := entitystore.NewCharacter(cs.ID, cs.DisplayName, cs.FactionID, cs.Dexterity, cs.Strength, cs.Reflexes, cs.Coolness, cs.MaxHealth)
	c.CurrentHealth = cs.CurrentHealth
	c.Handedness = entitystore.Handedness(cs.Handedness)
	if cs.Skills != nil {
		c.Skills = cs.Skills
	}

	if cs.RangedWeaponID != "" {
		w, ok := weapon.Get(cs.RangedWeaponID)
		if !ok {
			return nil, errors.Errorf("unknown ranged weapon id %q", cs.RangedWeaponID)
		}
		if err := c.EquipRanged(w); err != nil {
			return nil, err
		}
	}
	if cs.MeleeWeaponID != "" {
		w, ok := weapon.Get(cs.MeleeWeaponID)
		if !ok {
			return nil, errors.Errorf("unknown melee weapon id %q", cs.MeleeWeaponID)
		}
		if err := c.EquipMelee(w); err != nil {
			return nil, err
		}
	}
	c.ActiveRanged = cs.ActiveRanged
	c.WeaponState = weapon.State(cs.WeaponState)

	c.Stance = entitystore.Stance(cs.Stance)
	c.Movement = entitystore.MovementType(cs.Movement)
	c.AimingSpeed = entitystore.AimingSpeed(cs.AimingSpeed)
	c.FiringMode = weapon.FiringMode(cs.FiringMode)

	c.CurrentTargetID = cs.CurrentTargetID
	c.PersistentAttack = cs.PersistentAttack
	c.AutoTargeting = cs.AutoTargeting

	c.FirstAttackOnTarget = cs.FirstAttackOnTarget
	c.ShotsInSequence = cs.ShotsInSequence
	c.RecoveryUntil = cs.RecoveryUntil
	c.HesitationUntil = cs.HesitationUntil
	c.BraveryFailures = cs.BraveryFailures

	for _, ws := range cs.Wounds {
		c.Wounds = append(c.Wounds, entitystore.Wound{
			BodyPart: entitystore.BodyPart(ws.BodyPart),
			Severity: entitystore.WoundSeverity(ws.Severity),
			Damage:   ws.Damage,
		})
	}
	return c, nil
}

// Save writes snap as JSON to path, truncating any existing file.
func Save(path string, snap Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "persistence: create save file")
	}
	defer f.Close()
	return encode(f, snap)
}

// Load reads and decodes a Snapshot from path.
func Load(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "persistence: open save file")
	}
	defer f.Close()
	return decode(f)
}

func encode(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return errors.Wrap(err, "persistence: encode snapshot")
	}
	return nil
}

func decode(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "persistence: decode snapshot")
	}
	return snap, nil
}
