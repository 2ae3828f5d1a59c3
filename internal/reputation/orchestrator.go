/*

This file composes the scoring engine: every activity event lands in the
local cache first, then writes through to the reputation contract when the
caller asks for it and this engine is an authorized recorder. Reads go to the
contract whenever a connection exists; the cache only ever backs the write
path's local estimates.

*/

package reputation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KcPele/lobster-sage-sub001/internal/cache"
	"github.com/KcPele/lobster-sage-sub001/internal/ledger"
	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/rank"
	"github.com/KcPele/lobster-sage-sub001/internal/scoring"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
	"github.com/KcPele/lobster-sage-sub001/internal/utils"
)

// ErrTierBoundMismatch means the contract's step-function constants differ
// from the engine's. The two must match bit-for-bit; a mismatch is a
// correctness bug, not a display issue, so startup aborts on it.
var ErrTierBoundMismatch = errors.New("ledger tier bounds do not match engine constants")

// Orchestrator is the engine's query and update surface. Construct one per
// process with New; there is deliberately no package-level instance, so tests
// can run isolated orchestrators concurrently.
type Orchestrator struct {
	logger     zerolog.Logger
	ledger     ledger.Ledger // nil when running local-only
	cache      *cache.Cache
	rank       *rank.Service
	recorder   string
	authorized bool
	now        func() time.Time

	// Per-address serialization: two concurrent updates for the same address
	// must not interleave their cache appends and ledger writes.
	locksMu   sync.Mutex
	addrLocks map[string]*sync.Mutex
}

// Config holds the dependencies for creating an Orchestrator.
type Config struct {
	// Ledger is the authoritative contract gateway. May be nil to run the
	// engine in local-estimate-only mode.
	Ledger ledger.Ledger
	// Cache is the local record store. A fresh one is created when nil.
	Cache *cache.Cache
	// RecorderAddress is the address ledger writes are submitted as.
	// Required when Ledger is set.
	RecorderAddress string
	// Now overrides the clock, used by tests. Defaults to time.Now.
	Now func() time.Time
}

// New creates an orchestrator with dependency injection. When a ledger is
// configured it checks recorder authorization and verifies that the
// contract's tier-bound constants match the engine's.
func New(ctx context.Context, cfg Config) (*Orchestrator, error) {
	o := &Orchestrator{
		logger:    logger.GetForComponent("reputation_orchestrator"),
		ledger:    cfg.Ledger,
		cache:     cfg.Cache,
		recorder:  types.NormalizeAddress(cfg.RecorderAddress),
		now:       cfg.Now,
		addrLocks: make(map[string]*sync.Mutex),
	}
	if o.cache == nil {
		o.cache = cache.New()
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.rank = rank.NewService(cfg.Ledger)

	if o.ledger == nil {
		o.logger.Warn().Msg("No ledger configured; serving local-only estimates")
		return o, nil
	}
	if o.recorder == "" {
		return nil, errors.New("recorder address is required when a ledger is configured")
	}

	if err := o.verifyTierBounds(ctx); err != nil {
		return nil, err
	}

	authorized, err := o.ledger.IsAuthorizedRecorder(ctx, o.recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to check recorder authorization: %w", err)
	}
	o.authorized = authorized
	if !authorized {
		o.logger.Warn().
			Str("recorder", o.recorder).
			Msg("Recorder is not authorized on the contract; updates will fall back to local estimates")
	}

	o.logger.Info().
		Str("recorder", o.recorder).
		Bool("authorized", authorized).
		Msg("Orchestrator created with ledger connection")

	return o, nil
}

// verifyTierBounds compares the contract's volume and yield step bounds with
// the engine's own constants. Any divergence would make locally-computed
// breakdowns disagree with the ledger's.
func (o *Orchestrator) verifyTierBounds(ctx context.Context) error {
	volumeBounds, err := o.ledger.VolumeTierBounds(ctx)
	if err != nil {
		return fmt.Errorf("failed to read volume tier bounds: %w", err)
	}
	yieldBounds, err := o.ledger.YieldTierBounds(ctx)
	if err != nil {
		return fmt.Errorf("failed to read yield tier bounds: %w", err)
	}

	if !boundsEqual(volumeBounds, scoring.VolumeTierBoundsUSD) {
		o.logger.Error().
			Floats64("ledgerBounds", volumeBounds).
			Floats64("engineBounds", scoring.VolumeTierBoundsUSD).
			Msg("Volume tier bound mismatch")
		return errors.Join(ErrTierBoundMismatch, errors.New("volume bounds diverge"))
	}
	if !boundsEqual(yieldBounds, scoring.YieldTierBoundsUSD) {
		o.logger.Error().
			Floats64("ledgerBounds", yieldBounds).
			Floats64("engineBounds", scoring.YieldTierBoundsUSD).
			Msg("Yield tier bound mismatch")
		return errors.Join(ErrTierBoundMismatch, errors.New("yield bounds diverge"))
	}

	o.logger.Debug().Msg("Ledger tier bounds verified against engine constants")
	return nil
}

func boundsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// addressLock returns the mutex serializing updates for one address.
func (o *Orchestrator) addressLock(address string) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	mu, ok := o.addrLocks[address]
	if !ok {
		mu = &sync.Mutex{}
		o.addrLocks[address] = mu
	}
	return mu
}

// UpdatePrediction records a resolved prediction for the address and, when
// requested and authorized, writes it through to the contract.
// Output:
//   - The ledger's freshly-read breakdown after a successful write-through,
//     or the locally-computed estimate when the write path is unavailable.
//   - nil with a wrapped ledger error when the write or read-back failed;
//     callers distinguish that from a zero breakdown.
func (o *Orchestrator) UpdatePrediction(ctx context.Context, address string, result types.PredictionResult, submitToLedger bool) (*types.ReputationBreakdown, error) {
	key := types.NormalizeAddress(address)
	mu := o.addressLock(key)
	mu.Lock()
	defer mu.Unlock()

	updateLogger := o.updateLogger("prediction", key)

	if result.Timestamp.IsZero() {
		result.Timestamp = o.now()
	}
	o.cache.AddPrediction(key, result)
	o.cache.AddActivity(key, types.ActionPrediction, result.Timestamp)

	return o.writeThrough(ctx, key, submitToLedger, updateLogger, func(writeCtx context.Context) error {
		local := o.localBreakdown(key)
		return o.ledger.RecordPrediction(writeCtx, key, result.Correct(), result.Confidence, local.AccuracyPoints)
	})
}

// UpdateVolume records executed trading volume for the address.
func (o *Orchestrator) UpdateVolume(ctx context.Context, address string, record types.VolumeRecord, submitToLedger bool) (*types.ReputationBreakdown, error) {
	key := types.NormalizeAddress(address)
	mu := o.addressLock(key)
	mu.Lock()
	defer mu.Unlock()

	updateLogger := o.updateLogger("volume", key)

	if record.Timestamp.IsZero() {
		record.Timestamp = o.now()
	}
	o.cache.AddVolume(key, record)

	return o.writeThrough(ctx, key, submitToLedger, updateLogger, func(writeCtx context.Context) error {
		amount, err := utils.USDToWAD(record.AmountUSD)
		if err != nil {
			return errors.Join(ledger.ErrWrite, err)
		}
		return o.ledger.RecordVolume(writeCtx, key, amount)
	})
}

// UpdateActivity marks the address active for the current day. The insert is
// idempotent per calendar day.
func (o *Orchestrator) UpdateActivity(ctx context.Context, address string, action types.ActivityAction, submitToLedger bool) (*types.ReputationBreakdown, error) {
	key := types.NormalizeAddress(address)
	mu := o.addressLock(key)
	mu.Lock()
	defer mu.Unlock()

	updateLogger := o.updateLogger("activity", key)

	o.cache.AddActivity(key, action, o.now())

	return o.writeThrough(ctx, key, submitToLedger, updateLogger, func(writeCtx context.Context) error {
		return o.ledger.RecordActivity(writeCtx, key)
	})
}

// UpdateYield records realized profit for the address.
func (o *Orchestrator) UpdateYield(ctx context.Context, address string, amountUSD float64, submitToLedger bool) (*types.ReputationBreakdown, error) {
	key := types.NormalizeAddress(address)
	mu := o.addressLock(key)
	mu.Lock()
	defer mu.Unlock()

	updateLogger := o.updateLogger("yield", key)

	o.cache.AddYield(key, amountUSD)
	o.cache.AddActivity(key, types.ActionYield, o.now())

	return o.writeThrough(ctx, key, submitToLedger, updateLogger, func(writeCtx context.Context) error {
		profit, err := utils.USDToWAD(amountUSD)
		if err != nil {
			return errors.Join(ledger.ErrWrite, err)
		}
		return o.ledger.RecordYield(writeCtx, key, profit)
	})
}

// UpdateBurn records a stake burn event for the address.
func (o *Orchestrator) UpdateBurn(ctx context.Context, address string, submitToLedger bool) (*types.ReputationBreakdown, error) {
	key := types.NormalizeAddress(address)
	mu := o.addressLock(key)
	mu.Lock()
	defer mu.Unlock()

	updateLogger := o.updateLogger("burn", key)

	o.cache.AddActivity(key, types.ActionBurn, o.now())

	return o.writeThrough(ctx, key, submitToLedger, updateLogger, func(writeCtx context.Context) error {
		return o.ledger.RecordBurn(writeCtx, key)
	})
}

// writeThrough implements the shared update tail: serve the local estimate
// when submission is skipped, unavailable, or unauthorized; otherwise submit
// to the contract and return its freshly-read breakdown.
func (o *Orchestrator) writeThrough(ctx context.Context, address string, submitToLedger bool, updateLogger zerolog.Logger, write func(context.Context) error) (*types.ReputationBreakdown, error) {
	if !submitToLedger || o.ledger == nil || !o.authorized {
		local := o.localBreakdown(address)
		updateLogger.Debug().
			Bool("submitRequested", submitToLedger).
			Bool("ledgerConnected", o.ledger != nil).
			Bool("authorized", o.authorized).
			Int64("localScore", local.TotalScore).
			Msg("Serving locally-computed breakdown")
		return local, nil
	}

	if err := write(ctx); err != nil {
		updateLogger.Error().Err(err).Msg("Ledger write failed")
		return nil, err
	}

	breakdown, err := o.ledger.GetReputation(ctx, address)
	if err != nil {
		updateLogger.Error().Err(err).Msg("Write landed but breakdown read-back failed")
		return nil, err
	}
	breakdown.Source = types.SourceLedger

	updateLogger.Info().
		Int64("totalScore", breakdown.TotalScore).
		Msg("Ledger write-through complete")

	return &breakdown, nil
}

// localBreakdown recomputes the breakdown from the cache via the score
// calculator and streak tracker.
func (o *Orchestrator) localBreakdown(address string) *types.ReputationBreakdown {
	stats := o.cache.Stats(address)
	streak := scoring.ComputeStreak(o.cache.Activities(address), o.now())

	breakdown := scoring.CalculateScore(
		scoring.AccuracyInput{Correct: stats.PredictionsCorrect, Total: stats.PredictionsMade},
		stats.VolumeUSD,
		streak,
		stats.YieldUSD,
	)
	breakdown.Source = types.SourceLocal
	return &breakdown
}

// LocalBreakdown exposes the cache-derived estimate directly, regardless of
// ledger state. Useful for diagnostics and for unauthorized deployments.
func (o *Orchestrator) LocalBreakdown(address string) types.ReputationBreakdown {
	return *o.localBreakdown(types.NormalizeAddress(address))
}

// GetReputation returns the contract's breakdown for the address. A missing
// connection or a failed read degrades to an all-zero breakdown rather than
// an error: "no reputation yet" is an answer, a wrong rank is not.
func (o *Orchestrator) GetReputation(ctx context.Context, address string) types.ReputationBreakdown {
	if o.ledger == nil {
		o.logger.Debug().Str("address", types.NormalizeAddress(address)).Msg("No ledger connection, returning zero breakdown")
		return types.ReputationBreakdown{}
	}

	breakdown, err := o.ledger.GetReputation(ctx, types.NormalizeAddress(address))
	if err != nil {
		o.logger.Error().Err(err).Str("address", types.NormalizeAddress(address)).Msg("Ledger read failed, degrading to zero breakdown")
		return types.ReputationBreakdown{}
	}
	breakdown.Source = types.SourceLedger
	return breakdown
}

// GetScore returns the contract's total score for the address.
func (o *Orchestrator) GetScore(ctx context.Context, address string) (int64, error) {
	if o.ledger == nil {
		return 0, ledger.ErrNotInitialized
	}
	return o.ledger.GetScore(ctx, types.NormalizeAddress(address))
}

// GetTier classifies the contract's total score for the address.
func (o *Orchestrator) GetTier(ctx context.Context, address string) (types.Tier, error) {
	score, err := o.GetScore(ctx, address)
	if err != nil {
		return types.TierNovice, err
	}
	return scoring.TierForScore(score), nil
}

// GetPercentile returns the address's percentile rank in [0, 100].
func (o *Orchestrator) GetPercentile(ctx context.Context, address string) (int, error) {
	return o.rank.Percentile(ctx, types.NormalizeAddress(address))
}

// GetLeaderboardPosition returns the raw 1-based rank, 0 if unranked.
func (o *Orchestrator) GetLeaderboardPosition(ctx context.Context, address string) (uint64, error) {
	return o.rank.LeaderboardPosition(ctx, types.NormalizeAddress(address))
}

// GetLeaderboard returns up to count ranked entries, best first.
func (o *Orchestrator) GetLeaderboard(ctx context.Context, count int) ([]types.LeaderboardEntry, error) {
	return o.rank.Leaderboard(ctx, count)
}

// IsTopPercent reports whether the address sits in the top percent of the
// ranked population, per the contract's own computation.
func (o *Orchestrator) IsTopPercent(ctx context.Context, address string, percent int) (bool, error) {
	return o.rank.IsTopPercent(ctx, types.NormalizeAddress(address), percent)
}

// TotalUsers returns the size of the ranked population.
func (o *Orchestrator) TotalUsers(ctx context.Context) (uint64, error) {
	if o.ledger == nil {
		return 0, ledger.ErrNotInitialized
	}
	return o.ledger.TotalUsers(ctx)
}

// ClearCache removes all locally-cached records for the address.
func (o *Orchestrator) ClearCache(address string) {
	key := types.NormalizeAddress(address)
	mu := o.addressLock(key)
	mu.Lock()
	defer mu.Unlock()
	o.cache.Clear(key)
}

// Close tears the orchestrator down, releasing the ledger connection.
func (o *Orchestrator) Close() error {
	if o.ledger == nil {
		return nil
	}
	return o.ledger.Close()
}

// updateLogger tags one update call with a unique ID for tracing across the
// cache append, ledger write, and read-back.
func (o *Orchestrator) updateLogger(kind, address string) zerolog.Logger {
	return o.logger.With().
		Str("update_id", uuid.New().String()).
		Str("kind", kind).
		Str("address", address).
		Logger()
}
