package combat

import (
	"testing"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/simrand"
)

func TestPerformDefenseRespectsCooldown(t *testing.T) {
	m := NewDefenseManager(60)
	ch := entitystore.NewCharacter(1, "x", "red", 50, 50, 50, 50, 100)
	rng := simrand.NewRandomProvider(7)
	in := DefenseInput{DefenderDexterity: 50, SkillLevel: 0, WeaponAccuracy: 0}

	m.PerformDefense(ch, in, 0, rng)
	if v := m.PerformDefense(ch, in, 30, rng); v != 0 {
		t.Fatalf("expected 0 during cooldown window, got %d", v)
	}
	if last := m.lastDefended[ch.ID]; last != 0 {
		t.Fatalf("cooldown-blocked roll must not move the last-defended tick, got %d", last)
	}
	m.PerformDefense(ch, in, 60, rng)
	if last := m.lastDefended[ch.ID]; last != 60 {
		t.Fatalf("roll at tick 60 (cooldown elapsed) should update last-defended, got %d", last)
	}
}

func TestPerformDefenseIncapacitatedAlwaysZero(t *testing.T) {
	m := NewDefenseManager(60)
	ch := entitystore.NewCharacter(1, "x", "red", 50, 50, 50, 50, 100)
	ch.CurrentHealth = 0
	rng := simrand.NewRandomProvider(7)

	if v := m.PerformDefense(ch, DefenseInput{DefenderDexterity: 50}, 0, rng); v != 0 {
		t.Fatalf("expected 0 for incapacitated defender, got %d", v)
	}
}

func TestPerformDefenseResetAllowsImmediateReroll(t *testing.T) {
	m := NewDefenseManager(60)
	ch := entitystore.NewCharacter(1, "x", "red", 50, 50, 50, 50, 100)
	rng := simrand.NewRandomProvider(7)
	in := DefenseInput{DefenderDexterity: 50}

	m.PerformDefense(ch, in, 0, rng)
	m.Reset(ch.ID)
	m.PerformDefense(ch, in, 1, rng)
	if last := m.lastDefended[ch.ID]; last != 1 {
		t.Fatalf("a post-reset roll should record a fresh cooldown window at tick 1, got %d", last)
	}
}
