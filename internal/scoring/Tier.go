package scoring

import (
	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

// TierForScore maps a total score to its named tier by walking the ordered
// thresholds highest first. Total function, no failure mode.
func TierForScore(score int64) types.Tier {
	for _, threshold := range types.TierThresholds {
		if score >= threshold.MinScore {
			return threshold.Tier
		}
	}
	return types.TierNovice
}
