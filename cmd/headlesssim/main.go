// Command headlesssim drives the simulation core through a scripted
// skirmish with no rendering or network surface attached, and prints a
// combat report. It exists for repeatable, scriptable runs of the same
// determinism guarantees the engine promises: same seed, same scenario,
// same outcome.
//
// Grounded on the teacher's cmd/server/main.go for the .env/config
// loading and signal-handling shape, and on
// Garsondee-Soldier-Sense/cmd/headless-report/main.go for the flag-driven
// multi-run harness and the per-run/aggregate report printing style.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"tacticalcore/internal/config"
	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/eventlog"
	"tacticalcore/internal/factionrel"
	"tacticalcore/internal/metrics"
	"tacticalcore/internal/persistence"
	"tacticalcore/internal/sim"
	"tacticalcore/internal/simrand"
	"tacticalcore/internal/weapon"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	runs := flag.Int("runs", 1, "number of independent runs to simulate")
	ticks := flag.Int("ticks", 1800, "ticks to advance per run (60 ticks/sec)")
	seedBase := flag.Int64("seed", 1, "seed for the first run")
	seedStep := flag.Int64("seed-step", 1, "seed increment applied between runs")
	perSide := flag.Int("per-side", 2, "characters per faction")
	weaponID := flag.String("weapon", "rifle", "weapon id every character is equipped with")
	eventLogPath := flag.String("event-log", "", "optional path to persist a JSON-lines event log")
	savePath := flag.String("save", "", "optional path to write a final-state snapshot after the last run")
	debugServer := flag.Bool("debug-server", false, "start the localhost metrics/pprof server")
	flag.Parse()

	appCfg := config.Load()

	if *debugServer {
		metrics.StartDebugServer(metrics.DefaultDebugServerConfig())
	}

	if _, ok := weapon.Get(*weaponID); !ok {
		log.Fatalf("unknown weapon id %q", *weaponID)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	all := make([]runStats, 0, *runs)
	var lastStore *entitystore.Store
	var lastTick uint64

	for i := 0; i < *runs; i++ {
		select {
		case <-quit:
			log.Println("interrupted, stopping before next run")
			printAggregate(all)
			return
		default:
		}

		seed := *seedBase + int64(i)**seedStep
		rs, store, finalTick := runOnce(appCfg, seed, *ticks, *perSide, *weaponID, *eventLogPath, i)
		printRun(i, rs)
		all = append(all, rs)
		lastStore, lastTick = store, finalTick
	}

	if *runs > 1 {
		printAggregate(all)
	}

	if *savePath != "" && lastStore != nil {
		snap := persistence.Capture(lastStore, lastTick)
		if err := persistence.Save(*savePath, snap); err != nil {
			log.Printf("failed to save snapshot to %s: %v", *savePath, err)
		} else {
			log.Printf("wrote final-state snapshot to %s", *savePath)
		}
	}
}

// runStats accumulates the counters a single run produces, in the style
// of headless-report's per-run runStats: named counters plus a few
// derived booleans, filled in from the GameLoop's hooks rather than by
// rescanning a log after the fact.
type runStats struct {
	seed            int64
	ticksRun        int
	shotsFired      int
	shotsHit        int
	meleeSwings     int
	meleeHits       int
	incapacitations int
	braveryFailures int
	survivingRed    int
	survivingBlue   int
	stalemate       bool
}

func runOnce(appCfg config.AppConfig, seed int64, ticks, perSide int, weaponID, eventLogPath string, runIndex int) (runStats, *entitystore.Store, uint64) {
	store := entitystore.NewStore()
	factions := factionrel.NewTable()
	factions.Set("red", "blue", factionrel.Hostile)
	factions.Set("blue", "red", factionrel.Hostile)

	w, _ := weapon.Get(weaponID)
	buildSquad(store, "red", perSide, 1, w, 0)
	buildSquad(store, "blue", perSide, perSide+1, w, 300)

	rng := simrand.NewRandomProvider(seed)
	gl := sim.NewGameLoop(appCfg.Sim, store, factions, rng, nil)

	rs := runStats{seed: seed}

	gl.OnWeaponFired = func(ev sim.FiredEvent) {
		if w, ok := weapon.Get(ev.WeaponID); ok && w.Kind == weapon.Melee {
			rs.meleeSwings++
		} else {
			rs.shotsFired++
		}
	}
	gl.OnHit = func(ev sim.HitEvent) {
		if w, ok := weapon.Get(weaponID); ok && w.Kind == weapon.Melee {
			rs.meleeHits++
		} else {
			rs.shotsHit++
		}
	}

	if eventLogPath != "" {
		gl.Events = eventlog.New()
		path := fmt.Sprintf("%s.run%d", eventLogPath, runIndex)
		if err := gl.Events.Start(path); err != nil {
			log.Printf("run %d: event log disabled: %v", runIndex, err)
		} else {
			defer gl.Events.Stop()
		}
	}

	wasIncapacitated := make(map[int64]bool)
	var finalTick uint64
	for t := 0; t < ticks; t++ {
		finalTick = gl.Tick()
		for _, ch := range store.Characters() {
			if ch.IsIncapacitated() && !wasIncapacitated[ch.ID] {
				wasIncapacitated[ch.ID] = true
				rs.incapacitations++
			}
		}
	}
	rs.ticksRun = ticks

	for _, ch := range store.Characters() {
		if !ch.IsIncapacitated() {
			switch ch.FactionID {
			case "red":
				rs.survivingRed++
			case "blue":
				rs.survivingBlue++
			}
		}
		rs.braveryFailures += len(ch.BraveryFailures)
	}
	rs.stalemate = rs.survivingRed > 0 && rs.survivingBlue > 0 && rs.incapacitations == 0

	return rs, store, finalTick
}

// buildSquad registers count characters of one faction, equips w, enables
// auto-targeting, and lines them up facing the opposing squad's start
// position with startX feet of separation converted to the entity grid's
// pixel scale.
func buildSquad(store *entitystore.Store, factionID string, count int, firstID int64, w *weapon.Weapon, startXFt float64) {
	const pxPerFt = 7.0
	for i := 0; i < count; i++ {
		id := firstID + int64(i)
		ch := entitystore.NewCharacter(id, fmt.Sprintf("%s-%d", factionID, i+1), factionID, 55, 55, 55, 55, 20)
		var err error
		if w.Kind == weapon.Melee {
			err = ch.EquipMelee(w)
		} else {
			err = ch.EquipRanged(w)
		}
		if err != nil {
			log.Fatalf("equip %s on %s: %v", w.ID, ch.DisplayName, err)
		}
		ch.AutoTargeting = true
		if err := store.RegisterCharacter(ch); err != nil {
			log.Fatalf("register character %s: %v", ch.DisplayName, err)
		}

		x := startXFt * pxPerFt
		y := float64(i) * 2 * pxPerFt
		if err := store.RegisterUnit(entitystore.NewUnit(uint32(id), id, x, y)); err != nil {
			log.Fatalf("register unit for %s: %v", ch.DisplayName, err)
		}
	}
}

func printRun(index int, rs runStats) {
	outcome := "ongoing"
	switch {
	case rs.survivingRed > 0 && rs.survivingBlue == 0:
		outcome = "red wins"
	case rs.survivingBlue > 0 && rs.survivingRed == 0:
		outcome = "blue wins"
	case rs.survivingRed == 0 && rs.survivingBlue == 0:
		outcome = "mutual wipeout"
	case rs.stalemate:
		outcome = "stalemate"
	}

	fmt.Printf("run %d (seed %d): %d ticks | shots %d/%d hit | melee %d/%d hit | incapacitated %d | bravery failures %d | survivors red=%d blue=%d | %s\n",
		index, rs.seed, rs.ticksRun, rs.shotsHit, rs.shotsFired, rs.meleeHits, rs.meleeSwings,
		rs.incapacitations, rs.braveryFailures, rs.survivingRed, rs.survivingBlue, outcome)
}

func printAggregate(all []runStats) {
	if len(all) == 0 {
		return
	}
	var totalShots, totalShotsHit, totalMelee, totalMeleeHit, totalIncap, totalBravery int
	redWins, blueWins, stalemates := 0, 0, 0
	for _, rs := range all {
		totalShots += rs.shotsFired
		totalShotsHit += rs.shotsHit
		totalMelee += rs.meleeSwings
		totalMeleeHit += rs.meleeHits
		totalIncap += rs.incapacitations
		totalBravery += rs.braveryFailures
		switch {
		case rs.survivingRed > 0 && rs.survivingBlue == 0:
			redWins++
		case rs.survivingBlue > 0 && rs.survivingRed == 0:
			blueWins++
		case rs.stalemate:
			stalemates++
		}
	}

	n := len(all)
	fmt.Println("--- aggregate ---")
	fmt.Printf("runs: %d\n", n)
	fmt.Printf("red wins: %d (%.1f%%)  blue wins: %d (%.1f%%)  stalemates: %d (%.1f%%)\n",
		redWins, pct(redWins, n), blueWins, pct(blueWins, n), stalemates, pct(stalemates, n))
	fmt.Printf("avg shots/run: %.1f (%.1f%% hit)\n", avg(totalShots, n), pct(totalShotsHit, maxInt(totalShots, 1)))
	fmt.Printf("avg melee swings/run: %.1f (%.1f%% hit)\n", avg(totalMelee, n), pct(totalMeleeHit, maxInt(totalMelee, 1)))
	fmt.Printf("avg incapacitations/run: %.1f\n", avg(totalIncap, n))
	fmt.Printf("avg bravery failures/run: %.1f\n", avg(totalBravery, n))

	seeds := make([]int64, 0, n)
	for _, rs := range all {
		seeds = append(seeds, rs.seed)
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	fmt.Printf("seeds run: %v\n", seeds)
}

func avg(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
