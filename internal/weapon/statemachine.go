package weapon

// State names a node in a weapon's state machine. Every ranged weapon,
// rifles included, uses the sheathed/drawing progression; there is no
// separate slung/unslinging state.
type State string

const (
	Sheathed   State = "sheathed"
	Drawing    State = "drawing"
	Ready      State = "ready"
	Aiming     State = "aiming"
	Firing     State = "firing"
	Recovering State = "recovering"

	Unsheathing     State = "unsheathing"
	MeleeReady      State = "melee_ready"
	MeleeAttacking  State = "melee_attacking"
	MeleeRecovering State = "melee_recovering"
)

// Transition describes one edge out of a state: where it leads and its
// base tick cost before readying-speed modulation (see EffectiveTicks).
type Transition struct {
	Next         State
	BaseTicks    uint64
	Preparation  bool // true for transitions counted toward reaching ready/melee_ready
}

// StateMachine is a table of legal transitions, one entry per originating
// state. A transition not present in the table is invalid and must be
// rejected by the caller (§7 "invalid transition").
type StateMachine struct {
	Kind        Kind
	Transitions map[State]Transition
}

// Transition looks up the single legal transition out of from. ok is false
// if from has no declared transition (including terminal-looking states
// that in fact always have one declared edge in this machine — absence
// here means the caller asked about a state outside this machine's table).
func (sm *StateMachine) Transition(from State) (Transition, bool) {
	t, ok := sm.Transitions[from]
	return t, ok
}

// rangedStateMachine returns the shared ranged progression:
// sheathed → drawing → ready → aiming → firing → recovering → ready.
func rangedStateMachine() *StateMachine {
	return &StateMachine{
		Kind: Ranged,
		Transitions: map[State]Transition{
			Sheathed:   {Next: Drawing, BaseTicks: 0, Preparation: false},
			Drawing:    {Next: Ready, BaseTicks: 30, Preparation: true},
			Ready:      {Next: Aiming, BaseTicks: 10, Preparation: false},
			Aiming:     {Next: Firing, BaseTicks: 0, Preparation: false},
			Firing:     {Next: Recovering, BaseTicks: 1, Preparation: false},
			Recovering: {Next: Ready, BaseTicks: 0, Preparation: false},
		},
	}
}

// meleeStateMachine returns the shared melee progression:
// sheathed → unsheathing → melee_ready → melee_attacking → melee_recovering → melee_ready.
func meleeStateMachine() *StateMachine {
	return &StateMachine{
		Kind: Melee,
		Transitions: map[State]Transition{
			Sheathed:        {Next: Unsheathing, BaseTicks: 0, Preparation: false},
			Unsheathing:     {Next: MeleeReady, BaseTicks: 20, Preparation: true},
			MeleeReady:      {Next: MeleeAttacking, BaseTicks: 8, Preparation: false},
			MeleeAttacking:  {Next: MeleeRecovering, BaseTicks: 1, Preparation: false},
			MeleeRecovering: {Next: MeleeReady, BaseTicks: 60, Preparation: false},
		},
	}
}

// reflexSpeedMultiplier maps a clamped reflexes stat to a readying-speed
// multiplier: 1.2x slower at reflexes 1, down to 0.8x at reflexes 100,
// linear in between (§4.3).
func reflexSpeedMultiplier(reflexes int) float64 {
	if reflexes < 1 {
		reflexes = 1
	}
	if reflexes > 100 {
		reflexes = 100
	}
	// linear interpolation: reflexes=1 -> 1.2, reflexes=100 -> 0.8
	t := float64(reflexes-1) / 99.0
	return 1.2*(1-t) + 0.8*t
}

// quickdrawMultiplier returns the multiplicative speed bonus from Quickdraw
// skill level: 5% faster per level.
func quickdrawMultiplier(skillLevel int) float64 {
	return 1.0 - 0.05*float64(skillLevel)
}

// EffectiveTicks returns the tick cost of a preparation transition after
// applying reflexes and Quickdraw skill (§4.3: the two factors compose
// multiplicatively and apply only to transitions up to and including
// reaching ready/melee_ready). Non-preparation transitions are returned
// unmodified.
func EffectiveTicks(t Transition, reflexes, quickdrawSkill int) uint64 {
	if !t.Preparation {
		return t.BaseTicks
	}
	mult := reflexSpeedMultiplier(reflexes) * quickdrawMultiplier(quickdrawSkill)
	if mult < 0 {
		mult = 0
	}
	scaled := float64(t.BaseTicks) * mult
	if scaled < 0 {
		scaled = 0
	}
	return uint64(scaled + 0.5)
}
