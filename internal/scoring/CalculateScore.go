/*

This file contains the main function for computing a participant's reputation
breakdown from raw activity inputs. Every component is clamped to its cap, so
the calculator is total: bad inputs are pulled to their nearest valid boundary
instead of producing an error.

*/

package scoring

import (
	"math"

	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

var scoreLogger = logger.GetForComponent("score_calculator")

// Component caps. The four caps sum to MaxScore.
const (
	AccuracyCap    = 4000
	VolumeCap      = 2500
	ConsistencyCap = 2000
	YieldCap       = 1500
	MaxScore       = AccuracyCap + VolumeCap + ConsistencyCap + YieldCap
)

const (
	// MinSampleSize is the prediction count below which accuracy points are
	// dampened. A small sample is never allowed to reach the undamped ceiling
	// even at 100% correctness.
	MinSampleSize = 5
	// SmallSampleDampening multiplies the accuracy ratio when the sample is
	// below MinSampleSize.
	SmallSampleDampening = 0.4
	// ConsistencyCeilingDays is the streak length at which the consistency
	// component saturates.
	ConsistencyCeilingDays = 30
)

// VolumeTierBoundsUSD are the inclusive lower bounds of the volume step
// function. These must match the reputation contract's constants bit-for-bit;
// the orchestrator verifies that at startup.
var VolumeTierBoundsUSD = []float64{100, 500, 1000, 5000, 10000}

// YieldTierBoundsUSD are the inclusive lower bounds of the yield step function.
var YieldTierBoundsUSD = []float64{10, 50, 100, 500, 1000}

// stepFractions are the cap fractions granted at each tier bound, lowest first.
var stepFractions = []float64{0.2, 0.4, 0.6, 0.8, 1.0}

// AccuracyInput carries the resolved prediction counts for one address.
type AccuracyInput struct {
	Correct uint64
	Total   uint64
}

// CalculateScore converts raw activity inputs into the four-part point
// breakdown and total.
// Inputs:
//   - accuracy: resolved prediction counts (correct is clamped to total).
//   - volumeUSD: lifetime trading volume in USD.
//   - consecutiveDays: current activity streak in days.
//   - yieldUSD: lifetime realized profit in USD.
//
// Output:
//   - A ReputationBreakdown whose TotalScore is the exact sum of the four
//     components and lies in [0, MaxScore].
func CalculateScore(accuracy AccuracyInput, volumeUSD float64, consecutiveDays int, yieldUSD float64) types.ReputationBreakdown {
	correct, total := accuracy.Correct, accuracy.Total
	if correct > total {
		scoreLogger.Warn().
			Uint64("correct", correct).
			Uint64("total", total).
			Msg("Correct count exceeds total, clamping to total")
		correct = total
	}
	volumeUSD = clampUSD(volumeUSD, "volume")
	yieldUSD = clampUSD(yieldUSD, "yield")
	if consecutiveDays < 0 {
		consecutiveDays = 0
	}

	accuracyPoints, accuracyPct := calculateAccuracyPoints(correct, total)
	volumePoints := stepPoints(volumeUSD, VolumeTierBoundsUSD, VolumeCap)
	consistencyPoints := calculateConsistencyPoints(consecutiveDays)
	yieldPoints := stepPoints(yieldUSD, YieldTierBoundsUSD, YieldCap)

	breakdown := types.ReputationBreakdown{
		TotalScore:         accuracyPoints + volumePoints + consistencyPoints + yieldPoints,
		AccuracyPoints:     accuracyPoints,
		VolumePoints:       volumePoints,
		ConsistencyPoints:  consistencyPoints,
		YieldPoints:        yieldPoints,
		AccuracyPercentage: accuracyPct,
		PredictionsMade:    total,
		PredictionsCorrect: correct,
		ConsecutiveDays:    consecutiveDays,
		TotalVolumeUSD:     volumeUSD,
		TotalYieldUSD:      yieldUSD,
	}

	scoreLogger.Debug().
		Int64("totalScore", breakdown.TotalScore).
		Int64("accuracyPoints", accuracyPoints).
		Int64("volumePoints", volumePoints).
		Int64("consistencyPoints", consistencyPoints).
		Int64("yieldPoints", yieldPoints).
		Float64("accuracyPercentage", accuracyPct).
		Msg("Reputation breakdown calculated")

	return breakdown
}

// calculateAccuracyPoints computes the accuracy component and the undamped
// accuracy percentage. The percentage is always the raw correct/total ratio;
// only the points are dampened for small samples.
func calculateAccuracyPoints(correct, total uint64) (int64, float64) {
	if total == 0 {
		return 0, 0
	}

	ratio := float64(correct) / float64(total)
	percentage := math.Round(ratio*100*100) / 100

	if total < MinSampleSize {
		ratio *= SmallSampleDampening
		scoreLogger.Debug().
			Uint64("total", total).
			Float64("dampenedRatio", ratio).
			Msg("Small-sample dampening applied to accuracy ratio")
	}

	return int64(math.Round(ratio * AccuracyCap)), percentage
}

// stepPoints evaluates a step function over USD amounts with inclusive lower
// bounds, granting the matching fraction of the component cap.
func stepPoints(amountUSD float64, bounds []float64, componentCap int64) int64 {
	points := int64(0)
	for i, bound := range bounds {
		if amountUSD >= bound {
			points = int64(math.Round(stepFractions[i] * float64(componentCap)))
		}
	}
	return points
}

// calculateConsistencyPoints is linear in consecutive active days up to the
// 30-day ceiling; longer streaks always yield the full cap.
func calculateConsistencyPoints(days int) int64 {
	if days > ConsistencyCeilingDays {
		days = ConsistencyCeilingDays
	}
	return int64(math.Round(float64(days) / ConsistencyCeilingDays * ConsistencyCap))
}

// clampUSD pulls invalid USD inputs to their nearest valid boundary.
// Negative and non-finite amounts clamp to zero.
func clampUSD(amount float64, field string) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		scoreLogger.Warn().Str("field", field).Float64("amount", amount).Msg("Non-finite USD amount, clamping to zero")
		return 0
	}
	if amount < 0 {
		scoreLogger.Warn().Str("field", field).Float64("amount", amount).Msg("Negative USD amount, clamping to zero")
		return 0
	}
	return amount
}
