// ./internal/state/snapshot_store.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

// SaveReputationSnapshot persists a point-in-time capture of one address's
// derived reputation state.
func SaveReputationSnapshot(snapshot types.ReputationSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO reputation_snapshots (
			address, captured_at,
			total_score, accuracy_points, volume_points, consistency_points, yield_points,
			accuracy_percentage, predictions_made, predictions_correct, consecutive_days,
			total_volume_usd, total_yield_usd, tier, percentile, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING snapshot_id;
	`

	b := snapshot.Breakdown
	var snapshotID int64
	err := DB.QueryRow(
		query,
		snapshot.Address, snapshot.CapturedAt,
		b.TotalScore, b.AccuracyPoints, b.VolumePoints, b.ConsistencyPoints, b.YieldPoints,
		b.AccuracyPercentage, b.PredictionsMade, b.PredictionsCorrect, b.ConsecutiveDays,
		b.TotalVolumeUSD, b.TotalYieldUSD, snapshot.Tier.String(), snapshot.Percentile, string(b.Source),
	).Scan(&snapshotID)

	if err != nil {
		return 0, fmt.Errorf("failed to save reputation snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Str("address", snapshot.Address).
		Int64("total_score", b.TotalScore).
		Msg("Reputation snapshot saved to database")

	return snapshotID, nil
}

// SaveLeaderboardSnapshot persists a point-in-time capture of the ledger's
// top ranks.
func SaveLeaderboardSnapshot(snapshot types.LeaderboardSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	entriesJSON, err := json.Marshal(snapshot.Entries)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal entries: %w", err)
	}

	topAddresses := make([]string, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		topAddresses = append(topAddresses, entry.Address)
	}

	query := `
		INSERT INTO leaderboard_snapshots (
			cycle_number, captured_at, total_users, entries, top_addresses
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.CycleNumber, snapshot.CapturedAt, snapshot.TotalUsers,
		entriesJSON, pq.Array(topAddresses),
	).Scan(&snapshotID)

	if err != nil {
		return 0, fmt.Errorf("failed to save leaderboard snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("cycle_number", snapshot.CycleNumber).
		Int("entries", len(snapshot.Entries)).
		Msg("Leaderboard snapshot saved to database")

	return snapshotID, nil
}

// GetRecentLeaderboardSnapshots returns the most recent leaderboard captures,
// newest first.
func GetRecentLeaderboardSnapshots(limit int) ([]types.LeaderboardSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	query := `
		SELECT cycle_number, captured_at, total_users, entries
		FROM leaderboard_snapshots
		ORDER BY captured_at DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.LeaderboardSnapshot
	for rows.Next() {
		var snapshot types.LeaderboardSnapshot
		var entriesJSON []byte
		if err := rows.Scan(&snapshot.CycleNumber, &snapshot.CapturedAt, &snapshot.TotalUsers, &entriesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard snapshot: %w", err)
		}
		if err := json.Unmarshal(entriesJSON, &snapshot.Entries); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard snapshots: %w", err)
	}

	return snapshots, nil
}
