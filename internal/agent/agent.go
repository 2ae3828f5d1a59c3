/*

This file implements the periodic snapshot agent. Each cycle it pulls the
leaderboard and the per-address reputation state from the ledger through the
orchestrator, then persists the captures to the analytics database so that
score and rank history survives across restarts.

*/

package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/reputation"
	"github.com/KcPele/lobster-sage-sub001/internal/scoring"
	"github.com/KcPele/lobster-sage-sub001/internal/state"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

// Agent drives the periodic snapshot cycles against the reputation engine.
type Agent struct {
	logger       zerolog.Logger
	orchestrator *reputation.Orchestrator

	leaderboardDepth int
	persist          bool // false when running without a database
}

// Config holds the configuration for creating a new Agent instance.
type Config struct {
	Orchestrator     *reputation.Orchestrator
	LeaderboardDepth int
	Persist          bool
}

// NewAgent creates a new snapshot agent with dependency injection.
func NewAgent(cfg Config) (*Agent, error) {
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if cfg.LeaderboardDepth <= 0 {
		return nil, fmt.Errorf("leaderboard depth must be positive, got %d", cfg.LeaderboardDepth)
	}

	agent := &Agent{
		logger:           logger.GetForComponent("snapshot_agent"),
		orchestrator:     cfg.Orchestrator,
		leaderboardDepth: cfg.LeaderboardDepth,
		persist:          cfg.Persist,
	}

	agent.logger.Info().
		Int("leaderboardDepth", agent.leaderboardDepth).
		Bool("persist", agent.persist).
		Msg("Snapshot agent created successfully")

	return agent, nil
}

// RunLoop starts the main snapshot loop with the specified interval.
func (a *Agent) RunLoop(ctx context.Context, interval time.Duration) {
	a.logger.Info().
		Dur("interval", interval).
		Msg("Starting snapshot loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	a.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Snapshot loop stopped due to context cancellation")
			return
		case <-ticker.C:
			a.RunCycle(ctx)
		}
	}
}

// RunCycle executes a complete snapshot cycle.
func (a *Agent) RunCycle(ctx context.Context) {
	cycleStartTime := time.Now()

	// Generate unique cycle ID for tracing logs across the entire cycle
	cycleID := uuid.New().String()
	cycleLogger := a.logger.With().Str("cycle_id", cycleID).Logger()

	cycleLogger.Info().Msg("--- Starting snapshot cycle ---")

	cycleNumber := a.nextCycleNumber(cycleLogger)

	// --- Step 1: Leaderboard Fetch ---
	cycleLogger.Info().Msg("Step 1: Fetching leaderboard from ledger...")
	entries, err := a.orchestrator.GetLeaderboard(ctx, a.leaderboardDepth)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: Failed to fetch leaderboard.")
		return
	}

	totalUsers, err := a.orchestrator.TotalUsers(ctx)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Cycle aborted: Failed to fetch total user count.")
		return
	}
	cycleLogger.Info().
		Int("entries", len(entries)).
		Uint64("totalUsers", totalUsers).
		Msg("Step 1: Leaderboard fetch complete.")

	// --- Step 2: Per-Address Reputation Capture ---
	cycleLogger.Info().Msg("Step 2: Capturing per-address reputation state...")
	reputationSnapshots := make([]types.ReputationSnapshot, 0, len(entries))
	for _, entry := range entries {
		breakdown := a.orchestrator.GetReputation(ctx, entry.Address)
		percentile, err := a.orchestrator.GetPercentile(ctx, entry.Address)
		if err != nil {
			cycleLogger.Warn().Err(err).Str("address", entry.Address).Msg("Skipping address: percentile lookup failed")
			continue
		}
		reputationSnapshots = append(reputationSnapshots, types.ReputationSnapshot{
			Address:    entry.Address,
			Breakdown:  breakdown,
			Tier:       scoring.TierForScore(breakdown.TotalScore),
			Percentile: percentile,
			CapturedAt: cycleStartTime,
		})
	}
	cycleLogger.Info().
		Int("captured", len(reputationSnapshots)).
		Msg("Step 2: Reputation capture complete.")

	// --- Step 3: Persistence ---
	if !a.persist {
		cycleLogger.Info().Msg("Persistence disabled; snapshot cycle complete without save.")
		a.logEndOfCycleState(cycleStartTime, cycleLogger)
		return
	}

	cycleLogger.Info().Msg("Step 3: Persisting snapshots...")
	leaderboardSnapshot := types.LeaderboardSnapshot{
		CycleNumber: cycleNumber,
		Entries:     entries,
		TotalUsers:  totalUsers,
		CapturedAt:  cycleStartTime,
	}
	if _, err := state.SaveLeaderboardSnapshot(leaderboardSnapshot); err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to persist leaderboard snapshot")
	}

	saved := 0
	for _, snapshot := range reputationSnapshots {
		if _, err := state.SaveReputationSnapshot(snapshot); err != nil {
			cycleLogger.Error().Err(err).Str("address", snapshot.Address).Msg("Failed to persist reputation snapshot")
			continue
		}
		saved++
	}
	cycleLogger.Info().
		Int("leaderboardEntries", len(entries)).
		Int("reputationSnapshots", saved).
		Msg("Step 3: Persistence complete.")

	a.logEndOfCycleState(cycleStartTime, cycleLogger)
}

// nextCycleNumber advances the persistent counter, falling back to zero when
// the database is unavailable so a cycle still runs.
func (a *Agent) nextCycleNumber(cycleLogger zerolog.Logger) int {
	if !a.persist {
		return 0
	}
	cycleNumber, err := state.IncrementCycleNumber()
	if err != nil {
		cycleLogger.Warn().Err(err).Msg("Failed to increment cycle counter, using 0")
		return 0
	}
	return cycleNumber
}

func (a *Agent) logEndOfCycleState(cycleStartTime time.Time, cycleLogger zerolog.Logger) {
	cycleLogger.Info().
		Dur("duration", time.Since(cycleStartTime)).
		Msg("--- Snapshot cycle completed ---")
}
