package ledger

import (
	"context"
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

// Error taxonomy shared by all ledger implementations. Callers branch on
// these with errors.Is rather than inspecting messages.
var (
	// ErrNotInitialized is returned when a call requires a ledger connection
	// that has not been established.
	ErrNotInitialized = errors.New("ledger connection not initialized")
	// ErrRead wraps network or contract failures during a read.
	ErrRead = errors.New("ledger read failed")
	// ErrWrite wraps network or contract failures during a write.
	ErrWrite = errors.New("ledger write failed")
)

// Ledger defines the interface for interacting with the authoritative
// reputation contract. This interface abstracts away the transport so
// different implementations (live JSON-RPC gateway, test stubs) can be
// injected into the orchestrator.
//
// USD amounts cross this boundary as 18-decimal fixed-point integers; the
// engine converts to and from floating-point USD at the boundary only.
type Ledger interface {
	// GetReputation returns the contract's full breakdown for the address.
	GetReputation(ctx context.Context, address string) (types.ReputationBreakdown, error)

	// GetScore returns the contract's total score for the address.
	GetScore(ctx context.Context, address string) (int64, error)

	// GetRank returns the 1-based rank of the address, or 0 if unranked.
	GetRank(ctx context.Context, address string) (uint64, error)

	// GetLeaderboard returns up to count entries ordered best first. The
	// contract may pad with placeholder slots when fewer users exist; those
	// are returned as-is and filtered by the rank service.
	GetLeaderboard(ctx context.Context, count int) ([]types.LeaderboardEntry, error)

	// IsTopPercent reports whether the address sits in the top percent of
	// the ranked population. The contract's own computation is authoritative
	// for comparative ranking since it alone has the full population.
	IsTopPercent(ctx context.Context, address string, percent int) (bool, error)

	// TotalUsers returns the size of the ranked population.
	TotalUsers(ctx context.Context) (uint64, error)

	// IsAuthorizedRecorder reports whether the address may submit writes.
	IsAuthorizedRecorder(ctx context.Context, address string) (bool, error)

	// VolumeTierBounds returns the contract's volume step bounds in USD.
	VolumeTierBounds(ctx context.Context) ([]float64, error)

	// YieldTierBounds returns the contract's yield step bounds in USD.
	YieldTierBounds(ctx context.Context) ([]float64, error)

	// RecordPrediction submits a resolved prediction outcome.
	RecordPrediction(ctx context.Context, address string, success bool, confidence int, accuracyScore int64) error

	// RecordVolume submits a fixed-point USD trading volume amount.
	RecordVolume(ctx context.Context, address string, amount sdkmath.Int) error

	// RecordActivity marks the address active for the current day.
	RecordActivity(ctx context.Context, address string) error

	// RecordYield submits a fixed-point USD realized profit amount.
	RecordYield(ctx context.Context, address string, profit sdkmath.Int) error

	// RecordBurn submits a stake burn event.
	RecordBurn(ctx context.Context, address string) error

	// Close releases any resources held by the implementation.
	Close() error
}
