package combat

import (
	"math"
	"testing"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/simrand"
)

func baseInput() AttackInput {
	return AttackInput{
		DistanceFt:       10,
		MaxRangeFt:       100,
		ShooterDexterity: 50,
		ShooterCoolness:  50,
		WeaponAccuracy:   0,
		WeaponDamage:     10,
		SkillLevel:       0,
		TargetStance:     entitystore.Standing,
		FiringState:      FiringFromAiming,
	}
}

func TestChanceToHitFloorsAtPointZeroOneInRange(t *testing.T) {
	in := baseInput()
	in.ShooterDexterity = 1     // -20
	in.StressBase = -100        // deeply negative; stressModifier only caps it from above at 0, so it stays -100
	in.FirstAttackOnTarget = true
	in.FirstAttackPenalty = -15
	in.DistanceFt = 99
	in.MaxRangeFt = 100

	chance := ChanceToHit(in)
	if chance != 0.01 {
		t.Fatalf("expected floor of 0.01, got %v", chance)
	}
}

func TestChanceToHitOutOfRangeNotFloored(t *testing.T) {
	in := baseInput()
	in.ShooterDexterity = 1
	in.DistanceFt = 200
	in.MaxRangeFt = 100

	chance := ChanceToHit(in)
	if chance >= 0.01 {
		t.Fatalf("expected an unfloored (likely negative) chance out of range, got %v", chance)
	}
}

func TestResolveOutOfRangeAlwaysMisses(t *testing.T) {
	in := baseInput()
	in.DistanceFt = 500
	in.MaxRangeFt = 100
	rng := simrand.NewRandomProvider(1)

	for i := 0; i < 20; i++ {
		out := Resolve(in, rng)
		if out.Hit {
			t.Fatal("out-of-range attack must never hit")
		}
	}
}

func TestResolveGuaranteedHitProducesConsistentOutcome(t *testing.T) {
	in := baseInput()
	in.ShooterDexterity = 100 // +20
	in.SkillLevel = 10        // +50
	in.WeaponAccuracy = 50
	in.DistanceFt = 1
	in.MaxRangeFt = 100 // well within the near-field range bonus

	rng := simrand.NewRandomProvider(42)
	for i := 0; i < 50; i++ {
		out := Resolve(in, rng)
		if !out.Hit {
			t.Fatalf("expected guaranteed hit given chance %v, got a miss", out.Chance)
		}
		want := damageForSeverity(in.WeaponDamage, out.Severity)
		if out.BodyPart == entitystore.Head {
			want = int(math.Round(float64(want) * 1.5))
		}
		if out.Damage != want {
			t.Fatalf("damage %d inconsistent with severity %v / body part %v (want %d)", out.Damage, out.Severity, out.BodyPart, want)
		}
	}
}

func TestUniformBodyPartBoundaries(t *testing.T) {
	cases := []struct {
		roll float64
		want entitystore.BodyPart
	}{
		{0, entitystore.LeftArm},
		{11.99, entitystore.LeftArm},
		{12, entitystore.RightArm},
		{23.99, entitystore.RightArm},
		{24, entitystore.LeftShoulder},
		{31.99, entitystore.LeftShoulder},
		{32, entitystore.RightShoulder},
		{39.99, entitystore.RightShoulder},
		{40, entitystore.Head},
		{49.99, entitystore.Head},
		{50, entitystore.LeftLeg},
		{64.99, entitystore.LeftLeg},
		{65, entitystore.RightLeg},
		{99.99, entitystore.RightLeg},
	}
	for _, c := range cases {
		if got := uniformBodyPart(c.roll); got != c.want {
			t.Errorf("uniformBodyPart(%v) = %v, want %v", c.roll, got, c.want)
		}
	}
}

func TestSeverityFromRollVitalVsNonVital(t *testing.T) {
	if got := severityFromRoll(29.99, true); got != entitystore.Critical {
		t.Errorf("vital roll 29.99 = %v, want Critical", got)
	}
	if got := severityFromRoll(30, true); got != entitystore.Serious {
		t.Errorf("vital roll 30 = %v, want Serious", got)
	}
	if got := severityFromRoll(94.99, true); got != entitystore.Light {
		t.Errorf("vital roll 94.99 = %v, want Light", got)
	}
	if got := severityFromRoll(95, true); got != entitystore.Scratch {
		t.Errorf("vital roll 95 = %v, want Scratch", got)
	}

	if got := severityFromRoll(9.99, false); got != entitystore.Critical {
		t.Errorf("non-vital roll 9.99 = %v, want Critical", got)
	}
	if got := severityFromRoll(34.99, false); got != entitystore.Serious {
		t.Errorf("non-vital roll 34.99 = %v, want Serious", got)
	}
	if got := severityFromRoll(79.99, false); got != entitystore.Light {
		t.Errorf("non-vital roll 79.99 = %v, want Light", got)
	}
	if got := severityFromRoll(80, false); got != entitystore.Scratch {
		t.Errorf("non-vital roll 80 = %v, want Scratch", got)
	}
}

func TestDamageForSeverityTable(t *testing.T) {
	if d := damageForSeverity(10, entitystore.Critical); d != 10 {
		t.Errorf("critical damage = %d, want 10", d)
	}
	if d := damageForSeverity(10, entitystore.Serious); d != 10 {
		t.Errorf("serious damage = %d, want 10", d)
	}
	if d := damageForSeverity(10, entitystore.Light); d != 4 {
		t.Errorf("light damage = %d, want 4", d)
	}
	if d := damageForSeverity(1, entitystore.Light); d != 1 {
		t.Errorf("light damage floors at 1, got %d", d)
	}
	if d := damageForSeverity(10, entitystore.Scratch); d != 1 {
		t.Errorf("scratch damage = %d, want 1", d)
	}
}

func TestComputeBreakdownSumsAllRows(t *testing.T) {
	in := baseInput()
	b := ComputeBreakdown(in)
	expected := 50.0 + float64(b.Dexterity) + float64(b.Stress) + b.Range + float64(b.WeaponAccuracy) +
		float64(b.ShooterMovement) + float64(b.Aiming) + float64(b.BurstPenalty) + b.TargetMovement +
		float64(b.Wound) + float64(b.Skill) + float64(b.TargetPosition) + float64(b.Bravery) +
		float64(b.FirstAttack) + float64(b.FiringState) + float64(b.Defense) + float64(b.SizeCover)
	if b.Total != expected {
		t.Fatalf("Total %v does not match manual sum %v", b.Total, expected)
	}
}
