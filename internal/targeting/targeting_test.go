package targeting

import (
	"testing"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/factionrel"
)

func setup(t *testing.T) (*entitystore.Store, *factionrel.Table) {
	t.Helper()
	store := entitystore.NewStore()
	factions := factionrel.NewTable()
	factions.Set("red", "blue", factionrel.Hostile)
	factions.Set("blue", "red", factionrel.Hostile)
	return store, factions
}

func addCombatant(t *testing.T, store *entitystore.Store, id int64, faction string, x, y float64) (*entitystore.Character, *entitystore.Unit) {
	t.Helper()
	ch := entitystore.NewCharacter(id, "x", faction, 50, 50, 50, 50, 100)
	ch.AutoTargeting = true
	if err := store.RegisterCharacter(ch); err != nil {
		t.Fatalf("register character: %v", err)
	}
	u := entitystore.NewUnit(uint32(id), id, x, y)
	if err := store.RegisterUnit(u); err != nil {
		t.Fatalf("register unit: %v", err)
	}
	return ch, u
}

func TestSelectsNearestHostile(t *testing.T) {
	store, factions := setup(t)
	self, selfUnit := addCombatant(t, store, 1, "red", 0, 0)
	_, _ = addCombatant(t, store, 2, "blue", 100, 0)
	near, _ := addCombatant(t, store, 3, "blue", 10, 0)

	c := NewController(store, factions)
	retargeted := c.Update(self, selfUnit, 0)
	if !retargeted {
		t.Fatal("expected retarget on first update")
	}
	if self.CurrentTargetID == nil || *self.CurrentTargetID != near.ID {
		t.Fatalf("selected target %v, want nearest id %d", self.CurrentTargetID, near.ID)
	}
}

func TestIgnoresNonHostileFaction(t *testing.T) {
	store, factions := setup(t)
	self, selfUnit := addCombatant(t, store, 1, "red", 0, 0)
	addCombatant(t, store, 2, "green", 1, 0) // not hostile to red

	c := NewController(store, factions)
	c.Update(self, selfUnit, 0)
	if self.CurrentTargetID != nil {
		t.Fatal("should not target a non-hostile faction")
	}
}

func TestSkipsWhileInRecoveryOrHesitation(t *testing.T) {
	store, factions := setup(t)
	self, selfUnit := addCombatant(t, store, 1, "red", 0, 0)
	addCombatant(t, store, 2, "blue", 10, 0)

	self.RecoveryUntil = 50
	c := NewController(store, factions)
	c.Update(self, selfUnit, 10)
	if self.CurrentTargetID != nil {
		t.Fatal("should not acquire a target during recovery window")
	}

	self.RecoveryUntil = 0
	self.HesitationUntil = 50
	c.Update(self, selfUnit, 20)
	if self.CurrentTargetID != nil {
		t.Fatal("should not acquire a target during hesitation window")
	}
}

func TestIncapacitatedTargetDroppedAndReplaced(t *testing.T) {
	store, factions := setup(t)
	self, selfUnit := addCombatant(t, store, 1, "red", 0, 0)
	dead, _ := addCombatant(t, store, 2, "blue", 5, 0)
	alive, _ := addCombatant(t, store, 3, "blue", 50, 0)

	self.CurrentTargetID = &dead.ID
	dead.CurrentHealth = 0

	c := NewController(store, factions)
	c.Update(self, selfUnit, 0)
	if self.CurrentTargetID == nil || *self.CurrentTargetID != alive.ID {
		t.Fatalf("expected retarget to alive hostile %d, got %v", alive.ID, self.CurrentTargetID)
	}
}

func TestTargetZonePreferredOverGlobalNearest(t *testing.T) {
	store, factions := setup(t)
	self, selfUnit := addCombatant(t, store, 1, "red", 0, 0)
	near, _ := addCombatant(t, store, 2, "blue", 5, 0)  // globally nearest, outside zone
	inZone, _ := addCombatant(t, store, 3, "blue", 200, 200)

	self.TargetZone = &entitystore.Rect{MinX: 150, MinY: 150, MaxX: 250, MaxY: 250}

	c := NewController(store, factions)
	c.Update(self, selfUnit, 0)
	if self.CurrentTargetID == nil || *self.CurrentTargetID != inZone.ID {
		t.Fatalf("expected zone-preferred target %d, got %v (global nearest was %d)", inZone.ID, self.CurrentTargetID, near.ID)
	}
}
