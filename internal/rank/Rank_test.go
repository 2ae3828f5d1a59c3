package rank

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KcPele/lobster-sage-sub001/internal/ledger"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

// stubLedger implements ledger.Ledger with canned rank data.
type stubLedger struct {
	ranks       map[string]uint64
	totalUsers  uint64
	leaderboard []types.LeaderboardEntry
	topPercent  bool
}

func (s *stubLedger) GetReputation(ctx context.Context, address string) (types.ReputationBreakdown, error) {
	return types.ReputationBreakdown{}, nil
}
func (s *stubLedger) GetScore(ctx context.Context, address string) (int64, error) { return 0, nil }
func (s *stubLedger) GetRank(ctx context.Context, address string) (uint64, error) {
	return s.ranks[types.NormalizeAddress(address)], nil
}
func (s *stubLedger) GetLeaderboard(ctx context.Context, count int) ([]types.LeaderboardEntry, error) {
	if count > len(s.leaderboard) {
		count = len(s.leaderboard)
	}
	return s.leaderboard[:count], nil
}
func (s *stubLedger) IsTopPercent(ctx context.Context, address string, percent int) (bool, error) {
	return s.topPercent, nil
}
func (s *stubLedger) TotalUsers(ctx context.Context) (uint64, error) { return s.totalUsers, nil }
func (s *stubLedger) IsAuthorizedRecorder(ctx context.Context, address string) (bool, error) {
	return true, nil
}
func (s *stubLedger) VolumeTierBounds(ctx context.Context) ([]float64, error) { return nil, nil }
func (s *stubLedger) YieldTierBounds(ctx context.Context) ([]float64, error)  { return nil, nil }
func (s *stubLedger) RecordPrediction(ctx context.Context, address string, success bool, confidence int, accuracyScore int64) error {
	return nil
}
func (s *stubLedger) RecordVolume(ctx context.Context, address string, amount sdkmath.Int) error {
	return nil
}
func (s *stubLedger) RecordActivity(ctx context.Context, address string) error { return nil }
func (s *stubLedger) RecordYield(ctx context.Context, address string, profit sdkmath.Int) error {
	return nil
}
func (s *stubLedger) RecordBurn(ctx context.Context, address string) error { return nil }
func (s *stubLedger) Close() error                                         { return nil }

func TestPercentile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		rank       uint64
		totalUsers uint64
		want       int
	}{
		{"top of a large population", 1, 100, 100},
		{"fifth of one hundred", 5, 100, 96},
		{"middle of the pack", 50, 100, 51},
		{"bottom of one hundred", 100, 100, 1},
		{"only user", 1, 1, 100},
		{"unranked address", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubLedger{
				ranks:      map[string]uint64{"addr": tt.rank},
				totalUsers: tt.totalUsers,
			})
			got, err := svc.Percentile(ctx, "addr")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentile_EmptyPopulation(t *testing.T) {
	// A rank with no population is degenerate; treat as top.
	svc := NewService(&stubLedger{ranks: map[string]uint64{"addr": 1}, totalUsers: 0})
	got, err := svc.Percentile(context.Background(), "addr")
	require.NoError(t, err)
	assert.Equal(t, 100, got)
}

func TestPercentile_NilLedger(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Percentile(context.Background(), "addr")
	assert.ErrorIs(t, err, ledger.ErrNotInitialized)
}

func TestLeaderboard_FiltersPlaceholders(t *testing.T) {
	svc := NewService(&stubLedger{
		leaderboard: []types.LeaderboardEntry{
			{Address: "first", Score: 9200, Rank: 1},
			{Address: "", Score: 0, Rank: 2},
			{Address: "second", Score: 7100, Rank: 3},
			{Address: "", Score: 0, Rank: 4},
		},
	})

	entries, err := svc.Leaderboard(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Ranks are reassigned contiguously after filtering.
	assert.Equal(t, "first", entries[0].Address)
	assert.Equal(t, uint64(1), entries[0].Rank)
	assert.Equal(t, "second", entries[1].Address)
	assert.Equal(t, uint64(2), entries[1].Rank)
}

func TestLeaderboard_RejectsNonPositiveCount(t *testing.T) {
	svc := NewService(&stubLedger{})
	_, err := svc.Leaderboard(context.Background(), 0)
	assert.Error(t, err)
}

func TestIsTopPercent(t *testing.T) {
	svc := NewService(&stubLedger{topPercent: true})
	ctx := context.Background()

	got, err := svc.IsTopPercent(ctx, "addr", 10)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = svc.IsTopPercent(ctx, "addr", 0)
	assert.Error(t, err)
	_, err = svc.IsTopPercent(ctx, "addr", 101)
	assert.Error(t, err)
}

func TestLeaderboardPosition(t *testing.T) {
	svc := NewService(&stubLedger{ranks: map[string]uint64{"addr": 7}})
	got, err := svc.LeaderboardPosition(context.Background(), "addr")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got)
}
