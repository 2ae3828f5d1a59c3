/*

This file contains the per-address in-memory record of predictions, volumes,
and activities not yet (or never) committed to the reputation contract. It is
explicitly a cache, not a store: nothing survives a process restart, and a
successful ledger write supersedes it in authority.

*/

package cache

import (
	"math"
	"sync"
	"time"

	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

var cacheLogger = logger.GetForComponent("ledger_cache")

// Cache holds append-only collections of raw activity keyed by normalized
// address. Yield is tracked as a running total since realized profit has no
// natural record boundary in this design.
type Cache struct {
	mu          sync.RWMutex
	predictions map[string][]types.PredictionResult
	volumes     map[string][]types.VolumeRecord
	activities  map[string][]types.ActivityRecord
	yieldTotals map[string]float64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		predictions: make(map[string][]types.PredictionResult),
		volumes:     make(map[string][]types.VolumeRecord),
		activities:  make(map[string][]types.ActivityRecord),
		yieldTotals: make(map[string]float64),
	}
}

// AddPrediction appends a resolved prediction for the address. Out-of-range
// confidence is clamped to [0, 100]; negative stake clamps to zero.
func (c *Cache) AddPrediction(address string, result types.PredictionResult) {
	key := types.NormalizeAddress(address)

	if result.Confidence < 0 {
		cacheLogger.Warn().Str("address", key).Int("confidence", result.Confidence).Msg("Negative confidence, clamping to 0")
		result.Confidence = 0
	} else if result.Confidence > 100 {
		cacheLogger.Warn().Str("address", key).Int("confidence", result.Confidence).Msg("Confidence above 100, clamping to 100")
		result.Confidence = 100
	}
	result.StakeAmountUSD = clampAmount(key, "stake", result.StakeAmountUSD)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.predictions[key] = append(c.predictions[key], result)

	cacheLogger.Debug().
		Str("address", key).
		Bool("correct", result.Correct()).
		Int("cachedPredictions", len(c.predictions[key])).
		Msg("Prediction cached")
}

// AddVolume appends a trading volume record for the address.
// Negative amounts clamp to zero.
func (c *Cache) AddVolume(address string, record types.VolumeRecord) {
	key := types.NormalizeAddress(address)
	record.AmountUSD = clampAmount(key, "volume", record.AmountUSD)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.volumes[key] = append(c.volumes[key], record)

	cacheLogger.Debug().
		Str("address", key).
		Float64("amountUSD", record.AmountUSD).
		Int("cachedVolumes", len(c.volumes[key])).
		Msg("Volume record cached")
}

// AddActivity inserts a daily activity record. The insert is idempotent per
// calendar day: a second activity on the same day does not create a duplicate
// record. Returns true if a new record was stored.
func (c *Cache) AddActivity(address string, action types.ActivityAction, at time.Time) bool {
	key := types.NormalizeAddress(address)
	day := types.DayOf(at)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.activities[key] {
		if existing.Date.Equal(day) {
			cacheLogger.Debug().
				Str("address", key).
				Time("day", day).
				Msg("Activity already recorded for this day, skipping")
			return false
		}
	}

	c.activities[key] = append(c.activities[key], types.ActivityRecord{
		Date:      day,
		Timestamp: at,
		Action:    action,
	})

	cacheLogger.Debug().
		Str("address", key).
		Time("day", day).
		Str("action", string(action)).
		Int("activeDays", len(c.activities[key])).
		Msg("Activity recorded")

	return true
}

// AddYield accumulates realized profit for the address.
// Negative amounts clamp to zero.
func (c *Cache) AddYield(address string, amountUSD float64) {
	key := types.NormalizeAddress(address)
	amountUSD = clampAmount(key, "yield", amountUSD)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.yieldTotals[key] += amountUSD

	cacheLogger.Debug().
		Str("address", key).
		Float64("amountUSD", amountUSD).
		Float64("totalYieldUSD", c.yieldTotals[key]).
		Msg("Yield accumulated")
}

// Predictions returns a copy of the cached prediction log for the address.
func (c *Cache) Predictions(address string) []types.PredictionResult {
	key := types.NormalizeAddress(address)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.PredictionResult, len(c.predictions[key]))
	copy(out, c.predictions[key])
	return out
}

// Volumes returns a copy of the cached volume log for the address.
func (c *Cache) Volumes(address string) []types.VolumeRecord {
	key := types.NormalizeAddress(address)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.VolumeRecord, len(c.volumes[key]))
	copy(out, c.volumes[key])
	return out
}

// Activities returns a copy of the cached activity records for the address.
func (c *Cache) Activities(address string) []types.ActivityRecord {
	key := types.NormalizeAddress(address)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.ActivityRecord, len(c.activities[key]))
	copy(out, c.activities[key])
	return out
}

// Stats aggregates the cached records into the counts and sums the score
// calculator consumes.
func (c *Cache) Stats(address string) types.AggregateStats {
	key := types.NormalizeAddress(address)
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := types.AggregateStats{
		YieldUSD: c.yieldTotals[key],
	}
	for _, p := range c.predictions[key] {
		stats.PredictionsMade++
		if p.Correct() {
			stats.PredictionsCorrect++
		}
	}
	for _, v := range c.volumes[key] {
		stats.VolumeUSD += v.AmountUSD
	}
	return stats
}

// Clear removes all cached collections for the address atomically.
func (c *Cache) Clear(address string) {
	key := types.NormalizeAddress(address)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.predictions, key)
	delete(c.volumes, key)
	delete(c.activities, key)
	delete(c.yieldTotals, key)

	cacheLogger.Info().Str("address", key).Msg("Cache cleared for address")
}

// clampAmount pulls negative or non-finite USD amounts to zero at the point
// they enter the cache, so every downstream read sees valid values.
func clampAmount(address, field string, amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		cacheLogger.Warn().Str("address", address).Str("field", field).Float64("amount", amount).Msg("Non-finite amount, clamping to zero")
		return 0
	}
	if amount < 0 {
		cacheLogger.Warn().Str("address", address).Str("field", field).Float64("amount", amount).Msg("Negative amount, clamping to zero")
		return 0
	}
	return amount
}
