package factionrel

import "testing"

func TestAsymmetricRelations(t *testing.T) {
	tb := NewTable()
	tb.Set("red", "blue", Hostile)

	if !tb.IsHostile("red", "blue") {
		t.Fatal("red should be hostile toward blue")
	}
	if tb.IsHostile("blue", "red") {
		t.Fatal("hostility should not be implied symmetrically")
	}
}

func TestUnsetPairIsNeutral(t *testing.T) {
	tb := NewTable()
	if tb.IsHostile("red", "green") || tb.IsAllied("red", "green") {
		t.Fatal("unset faction pair should be neither hostile nor allied")
	}
}

func TestSelfIsAlwaysAllied(t *testing.T) {
	tb := NewTable()
	if !tb.IsAllied("red", "red") {
		t.Fatal("a faction should always be allied with itself")
	}
}
