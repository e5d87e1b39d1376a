package entitystore

import (
	"testing"

	"tacticalcore/internal/weapon"
)

func TestRegisterCharacterRejectsDuplicateID(t *testing.T) {
	s := NewStore()
	c := NewCharacter(1, "Soldier", "blue", 50, 50, 50, 50, 100)
	if err := s.RegisterCharacter(c); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := s.RegisterCharacter(c); err == nil {
		t.Fatal("expected error registering duplicate id")
	}
}

func TestRegisterUnitRequiresKnownCharacter(t *testing.T) {
	s := NewStore()
	u := NewUnit(1, 99, 0, 0)
	if err := s.RegisterUnit(u); err == nil {
		t.Fatal("expected error registering a unit for an unregistered character")
	}
}

func TestCharactersAndUnitsIterateInStableIDOrder(t *testing.T) {
	s := NewStore()
	ids := []int64{5, 1, 3}
	for _, id := range ids {
		c := NewCharacter(id, "x", "blue", 50, 50, 50, 50, 100)
		if err := s.RegisterCharacter(c); err != nil {
			t.Fatalf("register %d: %v", id, err)
		}
		u := NewUnit(uint32(id), id, 0, 0)
		if err := s.RegisterUnit(u); err != nil {
			t.Fatalf("register unit %d: %v", id, err)
		}
	}

	chars := s.Characters()
	for i := 1; i < len(chars); i++ {
		if chars[i-1].ID >= chars[i].ID {
			t.Fatalf("characters not in ascending id order: %v", chars)
		}
	}
	units := s.Units()
	for i := 1; i < len(units); i++ {
		if units[i-1].ID >= units[i].ID {
			t.Fatalf("units not in ascending id order: %v", units)
		}
	}
}

func TestIncapacitationAtZeroHealth(t *testing.T) {
	c := NewCharacter(1, "x", "blue", 50, 50, 50, 50, 10)
	if c.IsIncapacitated() {
		t.Fatal("full-health character should not be incapacitated")
	}
	c.CurrentHealth = 0
	if !c.IsIncapacitated() {
		t.Fatal("zero-health character should be incapacitated")
	}
}

func TestEquipRangedResetsStateAndRejectsWrongKind(t *testing.T) {
	c := NewCharacter(1, "x", "blue", 50, 50, 50, 50, 100)
	melee, _ := weapon.Get("sword")
	if err := c.EquipRanged(melee); err == nil {
		t.Fatal("expected error equipping a melee weapon as ranged")
	}

	ranged, _ := weapon.Get("pistol")
	c.WeaponState = weapon.Firing
	if err := c.EquipRanged(ranged); err != nil {
		t.Fatalf("EquipRanged: %v", err)
	}
	if c.WeaponState != weapon.Sheathed {
		t.Fatalf("WeaponState after equip = %s, want sheathed", c.WeaponState)
	}
	if !c.ActiveRanged {
		t.Fatal("first equipped weapon with no melee weapon should become active")
	}
}

func TestBraveryFailureExpiry(t *testing.T) {
	c := NewCharacter(1, "x", "blue", 50, 50, 50, 50, 100)
	c.RecordBraveryFailure(1000)

	if got := c.UnexpiredBraveryFailures(1179, 180); got != 1 {
		t.Fatalf("at tick 1179: got %d unexpired, want 1", got)
	}
	if got := c.UnexpiredBraveryFailures(1180, 180); got != 0 {
		t.Fatalf("at tick 1180: got %d unexpired, want 0 (expired)", got)
	}
}

func TestLegWounds(t *testing.T) {
	c := NewCharacter(1, "x", "blue", 50, 50, 50, 50, 100)
	left, right := c.LegWounds()
	if left || right {
		t.Fatal("fresh character should have no leg wounds")
	}
	c.Wounds = append(c.Wounds, Wound{BodyPart: LeftLeg, Severity: Light, Damage: 1})
	left, right = c.LegWounds()
	if !left || right {
		t.Fatalf("left=%v right=%v, want left=true right=false", left, right)
	}
}
