package main

import (
	"context"
	"os"
	"strconv"

	"github.com/KcPele/lobster-sage-sub001/internal/agent"
	"github.com/KcPele/lobster-sage-sub001/internal/config"
	"github.com/KcPele/lobster-sage-sub001/internal/ledger"
	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/reputation"
	"github.com/KcPele/lobster-sage-sub001/internal/state"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// main is the entry point for the reputation engine agent.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Reputation Engine Starting...")

	// Initialize Database Connection (snapshot history)
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Ledger Client Initialization (with Safety Switch) ---
	var ledgerClient ledger.Ledger
	agentMode := os.Getenv("AGENT_MODE")

	if agentMode == "live" {
		log.Warn().Msg("Initializing engine in LIVE mode. Real ledger writes will be submitted.")
		liveClient, err := ledger.NewClient(config.NodeRPC, config.ReputationContract, config.RecorderAddress, config.LedgerWriteRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize live ledger client")
		}
		ledgerClient = liveClient
	} else {
		log.Fatal().Msg("AGENT_MODE is not set to 'live'. Halting to prevent accidental execution. Set AGENT_MODE=live to run.")
	}

	// --- 3. Create Orchestrator with Dependency Injection ---
	log.Info().Msg("Creating reputation orchestrator...")

	ctx := context.Background()
	orchestrator, err := reputation.New(ctx, reputation.Config{
		Ledger:          ledgerClient,
		RecorderAddress: config.RecorderAddress,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reputation orchestrator")
	}
	defer orchestrator.Close()

	log.Info().Msg("Reputation orchestrator created successfully")

	// --- 4. Start Snapshot Loop ---
	snapshotAgent, err := agent.NewAgent(agent.Config{
		Orchestrator:     orchestrator,
		LeaderboardDepth: config.LeaderboardDepth,
		Persist:          true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create snapshot agent")
	}

	log.Info().Str("interval", config.SnapshotInterval.String()).Msg("Starting snapshot loop")
	snapshotAgent.RunLoop(ctx, config.SnapshotInterval)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
