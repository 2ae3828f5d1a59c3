package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// RecorderAddress is the address this engine signs ledger writes with.
	// The reputation contract only accepts writes from authorized recorders.
	RecorderAddress string

	// SnapshotInterval is how often the agent loop captures leaderboard and
	// reputation snapshots to the analytics store.
	SnapshotInterval time.Duration

	// LeaderboardDepth is how many entries each leaderboard snapshot captures.
	LeaderboardDepth int

	// LedgerWriteRPS is the maximum rate of ledger write submissions per second.
	LedgerWriteRPS float64
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	RecorderAddress, err = getEnv("RECORDER_ADDRESS")
	if err != nil {
		return err
	}

	intervalMinutes, err := getEnvAsUint64("SNAPSHOT_INTERVAL_MINUTES")
	if err != nil {
		return err
	}
	SnapshotInterval = time.Duration(intervalMinutes) * time.Minute

	depth, err := getEnvAsUint64("LEADERBOARD_DEPTH")
	if err != nil {
		return err
	}
	LeaderboardDepth = int(depth)

	LedgerWriteRPS, err = getEnvAsFloat64("LEDGER_WRITE_RPS")
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("RecorderAddress", RecorderAddress).
		Dur("SnapshotInterval", SnapshotInterval).
		Int("LeaderboardDepth", LeaderboardDepth).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64 retrieves an environment variable as a float64. Returns error if not set or invalid.
func getEnvAsFloat64(key string) (float64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
