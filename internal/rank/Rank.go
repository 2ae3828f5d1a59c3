/*

This file computes percentile rank and leaderboard position by querying the
reputation contract's ordered rank and population size. The contract is the
only party with the full population, so comparative checks are delegated to
it rather than recomputed locally.

*/

package rank

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/KcPele/lobster-sage-sub001/internal/ledger"
	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

// Service answers ranking queries against the ledger. All methods fail fast
// with ledger.ErrNotInitialized when constructed without a connection, so a
// caller can never receive a silently-wrong rank.
type Service struct {
	ledger ledger.Ledger
	logger zerolog.Logger
}

// NewService creates a rank service. The ledger may be nil when the engine
// runs local-only; every query then fails with ledger.ErrNotInitialized.
func NewService(l ledger.Ledger) *Service {
	return &Service{
		ledger: l,
		logger: logger.GetForComponent("rank_service"),
	}
}

// Percentile returns the address's standing in [0, 100]: 0 for unranked,
// 100 for the best (or for the degenerate empty population).
func (s *Service) Percentile(ctx context.Context, address string) (int, error) {
	if s.ledger == nil {
		return 0, ledger.ErrNotInitialized
	}

	rank, err := s.ledger.GetRank(ctx, address)
	if err != nil {
		return 0, err
	}
	if rank == 0 {
		// Unranked: the address has no reputation entry yet.
		return 0, nil
	}

	totalUsers, err := s.ledger.TotalUsers(ctx)
	if err != nil {
		return 0, err
	}
	if totalUsers == 0 {
		// Nothing to rank against; treat as top.
		return 100, nil
	}

	percentile := int(math.Round(float64(totalUsers-rank+1) / float64(totalUsers) * 100))
	if percentile < 0 {
		percentile = 0
	}
	if percentile > 100 {
		percentile = 100
	}

	s.logger.Debug().
		Str("address", types.NormalizeAddress(address)).
		Uint64("rank", rank).
		Uint64("totalUsers", totalUsers).
		Int("percentile", percentile).
		Msg("Percentile computed")

	return percentile, nil
}

// LeaderboardPosition returns the raw 1-based rank without percentile
// conversion, 0 if unranked.
func (s *Service) LeaderboardPosition(ctx context.Context, address string) (uint64, error) {
	if s.ledger == nil {
		return 0, ledger.ErrNotInitialized
	}
	return s.ledger.GetRank(ctx, address)
}

// Leaderboard returns up to count entries ordered best first, with any
// placeholder slots the contract pads out filtered away.
func (s *Service) Leaderboard(ctx context.Context, count int) ([]types.LeaderboardEntry, error) {
	if s.ledger == nil {
		return nil, ledger.ErrNotInitialized
	}
	if count <= 0 {
		return nil, errors.New("leaderboard count must be positive")
	}

	raw, err := s.ledger.GetLeaderboard(ctx, count)
	if err != nil {
		return nil, err
	}

	entries := make([]types.LeaderboardEntry, 0, len(raw))
	for _, entry := range raw {
		if entry.Address == "" {
			continue
		}
		entry.Rank = uint64(len(entries) + 1)
		entries = append(entries, entry)
	}

	s.logger.Debug().
		Int("requested", count).
		Int("returned", len(entries)).
		Int("placeholdersFiltered", len(raw)-len(entries)).
		Msg("Leaderboard fetched")

	return entries, nil
}

// IsTopPercent delegates directly to the contract's own computation.
func (s *Service) IsTopPercent(ctx context.Context, address string, percent int) (bool, error) {
	if s.ledger == nil {
		return false, ledger.ErrNotInitialized
	}
	if percent <= 0 || percent > 100 {
		return false, errors.New("percent must be in (0, 100]")
	}
	return s.ledger.IsTopPercent(ctx, address, percent)
}
