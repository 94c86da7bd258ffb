// Package config provides environment-driven configuration for the engine.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the engine.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Game     GameConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database configuration. An empty DSN selects the
// in-memory ledger store, used for development and tests.
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// GameConfig holds settlement and game math configuration.
type GameConfig struct {
	Currency  string
	HouseEdge float64 // fraction, e.g. 0.05
	MinBet    int64   // cents
	MaxBet    int64   // cents
	// MathFile is the YAML game math file; empty selects the built-in
	// default math.
	MathFile string

	JackpotRate  float64 // fraction of each bet accrued into the pool
	JackpotFloor int64   // pool reset value, cents

	LargeWinThreshold int64 // cents
}

// Load loads configuration from environment with defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("ENGINE_PORT", "8080"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: getEnv("ENGINE_DB_DRIVER", "postgres"),
			DSN:    getEnv("ENGINE_DB_DSN", ""),
		},
		Game: GameConfig{
			Currency:          getEnv("ENGINE_CURRENCY", "USD"),
			HouseEdge:         getEnvFloat("ENGINE_HOUSE_EDGE", 0.05),
			MinBet:            getEnvInt("ENGINE_MIN_BET", 10),      // $0.10
			MaxBet:            getEnvInt("ENGINE_MAX_BET", 10000),   // $100.00
			MathFile:          getEnv("ENGINE_MATH_FILE", ""),
			JackpotRate:       getEnvFloat("ENGINE_JACKPOT_RATE", 0.02),
			JackpotFloor:      getEnvInt("ENGINE_JACKPOT_FLOOR", 100000), // $1000.00
			LargeWinThreshold: getEnvInt("ENGINE_LARGE_WIN", 10000),      // $100.00
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
