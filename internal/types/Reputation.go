/*

This file contains the types for participant reputation: the score breakdown,
the raw activity records fed into the engine, and the aggregate statistics
derived from them.

*/

package types

import (
	"strings"
	"time"
)

// BreakdownSource identifies where a returned breakdown was computed.
type BreakdownSource string

const (
	SourceLedger BreakdownSource = "ledger" // Read back from the authoritative on-chain contract.
	SourceLocal  BreakdownSource = "local"  // Recomputed from the in-process cache.
)

// ReputationBreakdown is the four-component score decomposition plus the total.
// It is always a derived value, recomputed on read and never persisted as-is.
type ReputationBreakdown struct {
	TotalScore         int64           `json:"total_score"`         // Sum of the four point components, 0..10000.
	AccuracyPoints     int64           `json:"accuracy_points"`     // Prediction accuracy component, capped at 4000.
	VolumePoints       int64           `json:"volume_points"`       // Trading volume component, capped at 2500.
	ConsistencyPoints  int64           `json:"consistency_points"`  // Day-streak component, capped at 2000.
	YieldPoints        int64           `json:"yield_points"`        // Realized yield component, capped at 1500.
	AccuracyPercentage float64         `json:"accuracy_percentage"` // Undamped correct/total * 100, 2 decimal places.
	PredictionsMade    uint64          `json:"predictions_made"`
	PredictionsCorrect uint64          `json:"predictions_correct"`
	ConsecutiveDays    int             `json:"consecutive_days"`
	TotalVolumeUSD     float64         `json:"total_volume_usd"`
	TotalYieldUSD      float64         `json:"total_yield_usd"`
	Source             BreakdownSource `json:"source,omitempty"` // Populated by the orchestrator on reads.
}

// PredictionResult records a single resolved prediction. Immutable once recorded.
type PredictionResult struct {
	Predicted      bool      `json:"predicted"`         // The side the participant took.
	Actual         bool      `json:"actual"`            // The resolved outcome.
	Confidence     int       `json:"confidence"`        // Self-reported confidence, 0..100.
	StakeAmountUSD float64   `json:"stake_amount_usd"`  // USD value staked on the prediction.
	Timestamp      time.Time `json:"timestamp"`
}

// Correct reports whether the prediction matched the resolved outcome.
func (p PredictionResult) Correct() bool {
	return p.Predicted == p.Actual
}

// VolumeRecord is a single append-only trading volume entry for an address.
type VolumeRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	AmountUSD    float64   `json:"amount_usd"`
	PredictionID string    `json:"prediction_id,omitempty"` // Optional link to the prediction that produced the trade.
}

// ActivityAction is the kind of event that produced a daily activity record.
type ActivityAction string

const (
	ActionPrediction ActivityAction = "prediction"
	ActionYield      ActivityAction = "yield"
	ActionBurn       ActivityAction = "burn"
)

// ActivityRecord marks one calendar day of activity for an address.
// At most one record exists per address per day.
type ActivityRecord struct {
	Date      time.Time      `json:"date"` // Normalized to UTC midnight via DayOf.
	Timestamp time.Time      `json:"timestamp"`
	Action    ActivityAction `json:"action"`
}

// LeaderboardEntry is one row of the ledger-ordered leaderboard, best first.
type LeaderboardEntry struct {
	Address string `json:"address"`
	Score   int64  `json:"score"`
	Rank    uint64 `json:"rank"` // 1-based position.
}

// AggregateStats summarizes the cached raw records for one address.
// Yield is a running total rather than a record log since realized profit
// has no natural record boundary in this design.
type AggregateStats struct {
	PredictionsCorrect uint64  `json:"predictions_correct"`
	PredictionsMade    uint64  `json:"predictions_made"`
	VolumeUSD          float64 `json:"volume_usd"`
	YieldUSD           float64 `json:"yield_usd"`
}

// ReputationSnapshot is a point-in-time capture of a participant's derived
// state, persisted for the analytics history.
type ReputationSnapshot struct {
	Address    string              `json:"address"`
	Breakdown  ReputationBreakdown `json:"breakdown"`
	Tier       Tier                `json:"tier"`
	Percentile int                 `json:"percentile"`
	CapturedAt time.Time           `json:"captured_at"`
}

// LeaderboardSnapshot is a point-in-time capture of the ledger's top ranks.
type LeaderboardSnapshot struct {
	CycleNumber int                `json:"cycle_number"`
	Entries     []LeaderboardEntry `json:"entries"`
	TotalUsers  uint64             `json:"total_users"`
	CapturedAt  time.Time          `json:"captured_at"`
}

// DayOf normalizes a timestamp to its UTC calendar day (midnight).
// All streak arithmetic operates on these normalized days.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeAddress canonicalizes an address for use as a cache key.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
