// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package scoring

import (
	"testing"

	"github.com/tomtom215/bondscore/internal/models"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		total float64
		want  models.Tier
	}{
		{0, models.TierWeak},
		{15, models.TierWeak},
		{30, models.TierWeak},
		{30.5, models.TierModerate},
		{31, models.TierModerate},
		{45, models.TierModerate},
		{60, models.TierModerate},
		{61, models.TierStrong},
		{75, models.TierStrong},
		{90, models.TierStrong},
		{91, models.TierVeryStrong},
		{95, models.TierVeryStrong},
		{5000, models.TierVeryStrong},
	}
	for _, tt := range tests {
		if got := TierFor(tt.total); got != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(20)
	if p.PointsToNext != 11 {
		t.Errorf("ProgressFor(20).PointsToNext = %v, want 11", p.PointsToNext)
	}
	if p.Percent <= 0 || p.Percent > 100 {
		t.Errorf("ProgressFor(20).Percent = %v, want within (0, 100]", p.Percent)
	}
	if p.NextTier != models.TierModerate {
		t.Errorf("ProgressFor(20).NextTier = %s, want MODERATE", p.NextTier)
	}

	top := ProgressFor(150)
	if top.Percent != 100 || top.PointsToNext != 0 || top.NextTier != "" {
		t.Errorf("ProgressFor(150) = %+v, want 100%% with nothing remaining", top)
	}

	for _, total := range []float64{-5, 0, 30, 30.5, 31, 60, 90, 90.5} {
		p := ProgressFor(total)
		if p.Percent < 0 || p.Percent > 100 {
			t.Errorf("ProgressFor(%v).Percent = %v, out of [0, 100]", total, p.Percent)
		}
		if p.PointsToNext < 0 {
			t.Errorf("ProgressFor(%v).PointsToNext = %v, negative", total, p.PointsToNext)
		}
	}
}

func TestTierRank(t *testing.T) {
	if TierRank(models.TierWeak) >= TierRank(models.TierModerate) ||
		TierRank(models.TierStrong) >= TierRank(models.TierVeryStrong) {
		t.Error("TierRank() is not ordered")
	}
	if TierRank("BOGUS") != -1 {
		t.Error("TierRank(BOGUS) should be -1")
	}
}
