package api

import (
	"sync"
	"time"

	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/metrics"
	"tacticalcore/internal/sim"
)

// CharacterView is the read-only projection of one character+unit pair
// exposed over the API, flattened the way persistence.CharacterSnapshot
// flattens the same pair for save files — only here every field is
// JSON-tagged for external consumption instead of catalog-by-id.
type CharacterView struct {
	ID            int64   `json:"id"`
	DisplayName   string  `json:"displayName"`
	FactionID     string  `json:"factionId"`
	CurrentHealth int     `json:"currentHealth"`
	MaxHealth     int     `json:"maxHealth"`
	Incapacitated bool    `json:"incapacitated"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Facing        float64 `json:"facing"`
	WoundCount    int     `json:"woundCount"`
}

// StateView is the full read-only snapshot served by /api/state and
// streamed over /ws.
type StateView struct {
	Tick          uint64          `json:"tick"`
	Characters    []CharacterView `json:"characters"`
	CharacterCount int            `json:"characterCount"`
	IncapacitatedCount int        `json:"incapacitatedCount"`
}

// StatsView is the compact summary served by /api/stats.
type StatsView struct {
	Tick               uint64 `json:"tick"`
	CharacterCount     int    `json:"characterCount"`
	IncapacitatedCount int    `json:"incapacitatedCount"`
}

// Engine wraps a GameLoop with the concurrency safety the HTTP/WebSocket
// surface needs: a background goroutine advances the simulation at a
// fixed rate while request handlers read a consistent snapshot under the
// same lock, mirroring the teacher's Engine.tick()-under-mutex shape
// generalized from wall-clock ticking to this package's own ticker.
type Engine struct {
	mu   sync.RWMutex
	loop *sim.GameLoop

	tickInterval time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewEngine wraps loop for concurrent read access, ticking once per
// tickInterval once Start is called.
func NewEngine(loop *sim.GameLoop, tickInterval time.Duration) *Engine {
	return &Engine{
		loop:         loop,
		tickInterval: tickInterval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins advancing the simulation in the background. Call once.
func (e *Engine) Start() {
	go e.runLoop()
}

func (e *Engine) runLoop() {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			e.mu.Lock()
			e.loop.Tick()
			e.mu.Unlock()
			metrics.RecordTick(time.Since(start))
			e.syncGauges()
		}
	}
}

func (e *Engine) syncGauges() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	chars := e.loop.Store.Characters()
	incapacitated := 0
	for _, c := range chars {
		if c.IsIncapacitated() {
			incapacitated++
		}
	}
	metrics.SetCharacterCount(len(chars))
	metrics.SetIncapacitatedCount(incapacitated)
	if e.loop.Events != nil {
		stats := e.loop.Events.GetStats()
		metrics.SyncEventLogStats(stats.Total, stats.Dropped)
	}
}

// Stop halts the background ticking goroutine. Safe to call more than
// once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
}

// State returns a consistent read-only snapshot of every registered
// character.
func (e *Engine) State() StateView {
	e.mu.RLock()
	defer e.mu.RUnlock()

	chars := e.loop.Store.Characters()
	out := StateView{
		Tick:       e.loop.Clock.CurrentTick(),
		Characters: make([]CharacterView, 0, len(chars)),
	}
	for _, c := range chars {
		u := e.loop.Store.UnitOfCharacter(c.ID)
		cv := CharacterView{
			ID:            c.ID,
			DisplayName:   c.DisplayName,
			FactionID:     c.FactionID,
			CurrentHealth: c.CurrentHealth,
			MaxHealth:     c.MaxHealth,
			Incapacitated: c.IsIncapacitated(),
			WoundCount:    len(c.Wounds),
		}
		if u != nil {
			cv.X, cv.Y, cv.Facing = u.X, u.Y, u.Facing
		}
		out.Characters = append(out.Characters, cv)
		if cv.Incapacitated {
			out.IncapacitatedCount++
		}
	}
	out.CharacterCount = len(out.Characters)
	return out
}

// Stats returns the compact counters view.
func (e *Engine) Stats() StatsView {
	state := e.State()
	return StatsView{
		Tick:               state.Tick,
		CharacterCount:     state.CharacterCount,
		IncapacitatedCount: state.IncapacitatedCount,
	}
}

// Store exposes the underlying entity store for read access outside the
// request path (e.g. admin tooling). Callers must not mutate it
// concurrently with Start's ticking goroutine.
func (e *Engine) Store() *entitystore.Store {
	return e.loop.Store
}
