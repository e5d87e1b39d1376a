package weapon

import "testing"

func TestRangedProgressionShape(t *testing.T) {
	sm := rangedStateMachine()
	path := []State{Sheathed, Drawing, Ready, Aiming, Firing, Recovering}
	cur := path[0]
	for _, want := range path[1:] {
		tr, ok := sm.Transition(cur)
		if !ok {
			t.Fatalf("no transition declared from %s", cur)
		}
		if tr.Next != want {
			t.Fatalf("from %s: got next %s, want %s", cur, tr.Next, want)
		}
		cur = tr.Next
	}
	// Recovering loops back to Ready.
	tr, ok := sm.Transition(Recovering)
	if !ok || tr.Next != Ready {
		t.Fatalf("Recovering should transition back to Ready, got %+v ok=%v", tr, ok)
	}
}

func TestMeleeProgressionShape(t *testing.T) {
	sm := meleeStateMachine()
	path := []State{Sheathed, Unsheathing, MeleeReady, MeleeAttacking, MeleeRecovering}
	cur := path[0]
	for _, want := range path[1:] {
		tr, ok := sm.Transition(cur)
		if !ok {
			t.Fatalf("no transition declared from %s", cur)
		}
		if tr.Next != want {
			t.Fatalf("from %s: got next %s, want %s", cur, tr.Next, want)
		}
		cur = tr.Next
	}
	tr, ok := sm.Transition(MeleeRecovering)
	if !ok || tr.Next != MeleeReady {
		t.Fatalf("MeleeRecovering should transition back to MeleeReady, got %+v ok=%v", tr, ok)
	}
}

func TestInvalidTransitionNotDeclared(t *testing.T) {
	sm := rangedStateMachine()
	if _, ok := sm.Transition("nonexistent_state"); ok {
		t.Fatal("expected no transition for an undeclared state")
	}
}

func TestReflexSpeedMultiplierAnchors(t *testing.T) {
	if got := reflexSpeedMultiplier(1); got != 1.2 {
		t.Fatalf("reflexes=1 multiplier = %f, want 1.2", got)
	}
	if got := reflexSpeedMultiplier(100); got != 0.8 {
		t.Fatalf("reflexes=100 multiplier = %f, want 0.8", got)
	}
}

func TestEffectiveTicksOnlyModulatesPreparation(t *testing.T) {
	sm := rangedStateMachine()
	firing, _ := sm.Transition(Aiming) // Firing transition, not a preparation step
	got := EffectiveTicks(firing, 1, 9)
	if got != firing.BaseTicks {
		t.Fatalf("non-preparation transition ticks = %d, want unmodified %d", got, firing.BaseTicks)
	}

	drawing, _ := sm.Transition(Drawing)
	slow := EffectiveTicks(drawing, 1, 0)
	fast := EffectiveTicks(drawing, 100, 9)
	if fast >= slow {
		t.Fatalf("high reflexes+skill should be faster: slow=%d fast=%d", slow, fast)
	}
}

func TestEngagementDistanceIncludesBaseReach(t *testing.T) {
	w, ok := Get("bowie_knife")
	if !ok {
		t.Fatal("bowie_knife not in catalog")
	}
	if got := w.EngagementDistanceFt(); got != 5 {
		t.Fatalf("bowie_knife engagement distance = %f, want 5 (4 base + 1 reach)", got)
	}
}
