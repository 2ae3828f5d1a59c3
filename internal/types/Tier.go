/*

This file contains the tier enumeration for total reputation scores.
Presentation concerns (emoji, localized names) are layered elsewhere;
the engine only deals in these closed variants.

*/

package types

// Tier is a named band of total score used for display and gating.
type Tier int

const (
	TierNovice Tier = iota
	TierApprentice
	TierAdept
	TierSeer
	TierOracle
	TierProphet
	TierLegendary
)

// TierThreshold pairs a tier with its inclusive lower score bound.
type TierThreshold struct {
	Tier     Tier  `json:"tier"`
	MinScore int64 `json:"min_score"`
}

// TierThresholds lists the tier bounds highest first, the order the
// classifier walks them in.
var TierThresholds = []TierThreshold{
	{TierLegendary, 9000},
	{TierProphet, 7500},
	{TierOracle, 6000},
	{TierSeer, 4500},
	{TierAdept, 3000},
	{TierApprentice, 1500},
	{TierNovice, 0},
}

func (t Tier) String() string {
	switch t {
	case TierNovice:
		return "Novice"
	case TierApprentice:
		return "Apprentice"
	case TierAdept:
		return "Adept"
	case TierSeer:
		return "Seer"
	case TierOracle:
		return "Oracle"
	case TierProphet:
		return "Prophet"
	case TierLegendary:
		return "Legendary"
	default:
		return "Unknown"
	}
}
