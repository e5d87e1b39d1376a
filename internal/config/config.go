// Package config is the single source of truth for simulation constants
// and the process-level settings that wrap them, following the teacher's
// config.go AppConfig/Load()/*FromEnv() pattern: one file, one place to
// change a default.
package config

import (
	"os"
	"strconv"
)

// SimConfig holds the configuration surface enumerated in §6: the values
// that must be tunable without recompiling the simulation core.
type SimConfig struct {
	DeterministicMode bool
	Seed              int64 // only meaningful when DeterministicMode is true

	StressBase          int // default -20
	FirstAttackPenalty  int // default -15

	PixelsPerFoot   float64 // 7
	TicksPerSecond  int     // 60

	DefenseCooldownTicks         uint64 // 60
	BraveryPenaltyDurationTicks uint64 // 180
}

// DefaultSim returns the normative defaults from §6.
func DefaultSim() SimConfig {
	return SimConfig{
		DeterministicMode:           false,
		StressBase:                  -20,
		FirstAttackPenalty:          -15,
		PixelsPerFoot:               7,
		TicksPerSecond:              60,
		DefenseCooldownTicks:        60,
		BraveryPenaltyDurationTicks: 180,
	}
}

// SimFromEnv overlays environment variable overrides onto DefaultSim, the
// way the teacher's VideoFromEnv/AudioFromEnv/ServerFromEnv do.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if os.Getenv("SIM_DETERMINISTIC") == "true" {
		cfg.DeterministicMode = true
	}
	if s := getEnvInt64("SIM_SEED", 0); s != 0 {
		cfg.Seed = s
	}
	if v, ok := getEnvIntOK("SIM_STRESS_BASE"); ok {
		cfg.StressBase = v
	}
	if v, ok := getEnvIntOK("SIM_FIRST_ATTACK_PENALTY"); ok {
		cfg.FirstAttackPenalty = v
	}

	return cfg
}

// ResourceLimits controls DoS protection and capacity limits, carried from
// the teacher's ResourceLimits (config.go) and narrowed to what the
// simulation core and its glue actually enforce.
type ResourceLimits struct {
	MaxCharacters   int
	MaxPendingEvents int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxCharacters:    1_000_000,
		MaxPendingEvents: 100_000,
	}
}

// ServerConfig holds HTTP server settings for internal/api, carried from
// the teacher's ServerConfig.
type ServerConfig struct {
	Port       int
	MaxClients int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:       3000,
		MaxClients: 100,
	}
}

// ServerFromEnv overlays environment variable overrides onto
// DefaultServer.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mc := getEnvInt("MAX_CLIENTS", 0); mc > 0 {
		cfg.MaxClients = mc
	}
	return cfg
}

// AppConfig holds the complete application configuration for the glue
// layer (cmd/headlesssim, internal/api).
type AppConfig struct {
	Sim    SimConfig
	Server ServerConfig
	Limits ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:    SimFromEnv(),
		Server: ServerFromEnv(),
		Limits: DefaultLimits(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvIntOK(key string) (int, bool) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}
