// Command server runs the simulation behind the read-only HTTP/WebSocket
// API: a fixed two-faction skirmish ticks continuously in the background
// while internal/api serves /api/state, /api/stats, /api/weapons, and a
// /ws state stream.
//
// Grounded on the teacher's cmd/server/main.go for the .env loading,
// startup logging, and signal-handling shape, stripped of everything
// specific to Kick OAuth, chat, streaming, and avatars — this domain has
// no equivalent surface for any of them.
package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tacticalcore/internal/api"
	"tacticalcore/internal/config"
	"tacticalcore/internal/entitystore"
	"tacticalcore/internal/eventlog"
	"tacticalcore/internal/factionrel"
	"tacticalcore/internal/metrics"
	"tacticalcore/internal/sim"
	"tacticalcore/internal/simrand"
	"tacticalcore/internal/weapon"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	log.Println("================================")
	log.Println(" TACTICAL SIMULATION SERVER")
	log.Println("================================")

	appCfg := config.Load()
	log.Printf("config: %d ticks/sec, deterministic=%v", appCfg.Sim.TicksPerSecond, appCfg.Sim.DeterministicMode)

	store, factions := buildSkirmish()

	seed := appCfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := simrand.NewRandomProvider(seed)
	log.Printf("scenario seed: %d", seed)

	loop := sim.NewGameLoop(appCfg.Sim, store, factions, rng, nil)

	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	loop.Events = eventlog.New()
	if err := loop.Events.Start(eventLogPath); err != nil {
		log.Printf("event log disabled: %v", err)
		loop.Events = nil
	} else {
		log.Printf("event log: %s", eventLogPath)
	}

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		metrics.StartDebugServer(metrics.DefaultDebugServerConfig())
	}

	tickInterval := time.Second / time.Duration(appCfg.Sim.TicksPerSecond)
	engine := api.NewEngine(loop, tickInterval)
	server := api.NewServer(engine)

	addr := ":" + strconv.Itoa(appCfg.Server.Port)
	go func() {
		log.Printf("API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	log.Println("ready. press ctrl+c to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	server.Stop()
	if loop.Events != nil {
		loop.Events.Stop()
	}
	log.Println("goodbye")
}

// buildSkirmish registers a small red-vs-blue rifle squad fight: the
// server's fixed default scenario, since there is no join/matchmaking
// surface to build a roster from requests.
func buildSkirmish() (*entitystore.Store, *factionrel.Table) {
	store := entitystore.NewStore()
	factions := factionrel.NewTable()
	factions.Set("red", "blue", factionrel.Hostile)
	factions.Set("blue", "red", factionrel.Hostile)

	rifle, _ := weapon.Get("rifle")
	const pxPerFt = 7.0
	const perSide = 3

	for i := 0; i < perSide; i++ {
		id := int64(i + 1)
		ch := entitystore.NewCharacter(id, "red-"+strconv.Itoa(i+1), "red", 55, 55, 55, 55, 20)
		if err := ch.EquipRanged(rifle); err != nil {
			log.Fatalf("equip rifle: %v", err)
		}
		ch.AutoTargeting = true
		if err := store.RegisterCharacter(ch); err != nil {
			log.Fatalf("register character: %v", err)
		}
		if err := store.RegisterUnit(entitystore.NewUnit(uint32(id), id, 0, float64(i)*2*pxPerFt)); err != nil {
			log.Fatalf("register unit: %v", err)
		}
	}
	for i := 0; i < perSide; i++ {
		id := int64(perSide + i + 1)
		ch := entitystore.NewCharacter(id, "blue-"+strconv.Itoa(i+1), "blue", 55, 55, 55, 55, 20)
		if err := ch.EquipRanged(rifle); err != nil {
			log.Fatalf("equip rifle: %v", err)
		}
		ch.AutoTargeting = true
		if err := store.RegisterCharacter(ch); err != nil {
			log.Fatalf("register character: %v", err)
		}
		if err := store.RegisterUnit(entitystore.NewUnit(uint32(id), id, 300*pxPerFt, float64(i)*2*pxPerFt)); err != nil {
			log.Fatalf("register unit: %v", err)
		}
	}

	return store, factions
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
