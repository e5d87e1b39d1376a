package simclock

import "testing"

func TestAdvanceIncrements(t *testing.T) {
	c := NewGameClock()
	for i := uint64(1); i <= 5; i++ {
		if got := c.Advance(); got != i {
			t.Fatalf("Advance() = %d, want %d", got, i)
		}
	}
	if c.CurrentTick() != 5 {
		t.Fatalf("CurrentTick() = %d, want 5", c.CurrentTick())
	}
}

func TestPauseFreezesTick(t *testing.T) {
	c := NewGameClock()
	c.Advance()
	c.Advance()
	c.SetPaused(true)

	before := c.CurrentTick()
	for i := 0; i < 3; i++ {
		if got := c.Advance(); got != before {
			t.Fatalf("Advance() while paused = %d, want %d", got, before)
		}
	}
	if c.CurrentTick() != before {
		t.Fatalf("tick moved while paused: %d != %d", c.CurrentTick(), before)
	}

	c.SetPaused(false)
	if got := c.Advance(); got != before+1 {
		t.Fatalf("Advance() after resume = %d, want %d", got, before+1)
	}
}

func TestTogglePause(t *testing.T) {
	c := NewGameClock()
	if c.Paused() {
		t.Fatal("new clock should not start paused")
	}
	if !c.TogglePause() {
		t.Fatal("TogglePause() should report paused=true")
	}
	if !c.Paused() {
		t.Fatal("Paused() should report true after toggle")
	}
	if c.TogglePause() {
		t.Fatal("second TogglePause() should report paused=false")
	}
}
