// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package scoring

import (
	"math"

	"github.com/tomtom215/bondscore/internal/models"
)

// tierBand describes one tier: totals in (floor, ceiling] belong to it and
// next is the first integer total of the following tier.
type tierBand struct {
	tier    models.Tier
	floor   float64
	ceiling float64
	next    float64
}

var tierBands = []tierBand{
	{models.TierWeak, 0, 30, 31},
	{models.TierModerate, 30, 60, 61},
	{models.TierStrong, 60, 90, 91},
	{models.TierVeryStrong, 90, math.Inf(1), 0},
}

// TierFor derives the strength tier from total points.
func TierFor(totalPoints float64) models.Tier {
	return bandFor(totalPoints).tier
}

func bandFor(total float64) tierBand {
	for _, b := range tierBands[:len(tierBands)-1] {
		if total <= b.ceiling {
			return b
		}
	}
	return tierBands[len(tierBands)-1]
}

// TierRank orders tiers from 0 (WEAK) upwards. Unknown tiers rank -1.
func TierRank(t models.Tier) int {
	for i, b := range tierBands {
		if b.tier == t {
			return i
		}
	}
	return -1
}

// Progress describes how far a total is from the next tier.
type Progress struct {
	Tier         models.Tier `json:"tier"`
	NextTier     models.Tier `json:"next_tier,omitempty"`
	PointsToNext float64     `json:"points_to_next"`
	Percent      float64     `json:"percent"`
}

// ProgressFor computes progress toward the next tier. Percent is clamped to
// [0, 100] and the top tier always reports 100.
func ProgressFor(totalPoints float64) Progress {
	if totalPoints < 0 || math.IsNaN(totalPoints) {
		totalPoints = 0
	}
	band := bandFor(totalPoints)
	idx := TierRank(band.tier)
	if idx == len(tierBands)-1 {
		return Progress{Tier: band.tier, Percent: 100}
	}

	remaining := math.Max(band.next-totalPoints, 0)
	pct := (totalPoints - band.floor) / (band.next - band.floor) * 100
	return Progress{
		Tier:         band.tier,
		NextTier:     tierBands[idx+1].tier,
		PointsToNext: round2(remaining),
		Percent:      round2(math.Max(0, math.Min(100, pct))),
	}
}
