// Package config holds all configuration values for the server. Values
// are loaded from environment variables with sensible defaults, the way
// the teacher's root config.go does it, and optionally layered with a
// TOML file of game-balance knobs that don't belong in the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the server's environment-derived settings. Field names
// track spec.md §6.5 exactly: HOST, PORT, DATABASE_URL, LOG_LEVEL,
// SECRET_KEY, DEFAULT_LOCALE, IDLE_TIMEOUT_SEC, COMBAT_TIMEOUT_SEC.
type Config struct {
	Host             string
	Port             string
	DatabaseURL      string
	LogLevel         string
	LogPretty        bool
	SecretKey        string
	DefaultLocale    string
	IdleTimeout      time.Duration
	CombatTimeout    time.Duration
	MaxConnections   int
	BalancePath      string
	Balance          Balance
	MetricsAddr      string
	ScriptDir        string
}

// Balance holds game-tuning knobs loaded from an optional TOML file.
// Missing file is not an error; the defaultBalance values below apply.
type Balance struct {
	ExperienceRate float64 `toml:"experience_rate"`
	GoldRate       float64 `toml:"gold_rate"`
	SpawnCapBonus  int     `toml:"spawn_cap_bonus"`
	TickJitterMs   int     `toml:"tick_jitter_ms"`
}

func defaultBalance() Balance {
	return Balance{ExperienceRate: 1.0, GoldRate: 1.0, SpawnCapBonus: 0, TickJitterMs: 0}
}

// Load reads configuration from the environment and, if present, the
// TOML file named by HOLDFAST_BALANCE_FILE (default "config/balance.toml").
func Load() (*Config, error) {
	cfg := &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnv("PORT", "4000"),
		DatabaseURL:    getEnv("DATABASE_URL", "file:holdfast.db?_foreign_keys=on"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnv("LOG_PRETTY", "true") == "true",
		SecretKey:      getEnvOrGenerate("SECRET_KEY"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		IdleTimeout:    durationSeconds("IDLE_TIMEOUT_SEC", 30*60),
		CombatTimeout:  durationSeconds("COMBAT_TIMEOUT_SEC", 60),
		MaxConnections: 200,
		BalancePath:    getEnv("HOLDFAST_BALANCE_FILE", "config/balance.toml"),
		Balance:        defaultBalance(),
		MetricsAddr:    getEnv("METRICS_ADDR", ":9090"),
		ScriptDir:      getEnv("SCRIPT_DIR", "scripts"),
	}

	if data, err := os.ReadFile(cfg.BalancePath); err == nil {
		if _, err := toml.Decode(string(data), &cfg.Balance); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvOrGenerate retrieves an environment variable or generates a
// secure random value for secrets that must not have predictable
// defaults.
func getEnvOrGenerate(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate secure random value for " + key + ": " + err.Error())
	}
	return hex.EncodeToString(buf)
}

func durationSeconds(key string, fallbackSeconds int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallbackSeconds) * time.Second
	}
	secs, err := time.ParseDuration(v + "s")
	if err != nil {
		return time.Duration(fallbackSeconds) * time.Second
	}
	return secs
}
