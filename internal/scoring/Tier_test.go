package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int64
		want  types.Tier
	}{
		{0, types.TierNovice},
		{1499, types.TierNovice},
		{1500, types.TierApprentice},
		{2999, types.TierApprentice},
		{3000, types.TierAdept},
		{4499, types.TierAdept},
		{4500, types.TierSeer},
		{5999, types.TierSeer},
		{6000, types.TierOracle},
		{7499, types.TierOracle},
		{7500, types.TierProphet},
		{8999, types.TierProphet},
		{9000, types.TierLegendary},
		{MaxScore, types.TierLegendary},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score=%d", tt.score)
	}
}

func TestTierForScore_NegativeIsNovice(t *testing.T) {
	assert.Equal(t, types.TierNovice, TierForScore(-1))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "Novice", types.TierNovice.String())
	assert.Equal(t, "Legendary", types.TierLegendary.String())
}
