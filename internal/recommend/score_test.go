// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package recommend

import (
	"math"
	"testing"
	"time"

	"github.com/tomtom215/bondscore/internal/signals"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name       string
		a, b       []string
		want       float64
		wantCommon int
	}{
		{"both empty", nil, nil, 0, 0},
		{"one empty", []string{"music"}, nil, 0, 0},
		{"identical", []string{"a", "b"}, []string{"b", "a"}, 1, 2},
		{"partial", []string{"a", "b", "c"}, []string{"c", "d"}, 0.25, 1},
		{"duplicates ignored", []string{"a", "a"}, []string{"a", "a", "b"}, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, common := Jaccard(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard() = %v, want %v", got, tt.want)
			}
			if len(common) != tt.wantCommon {
				t.Errorf("common = %v, want %d items", common, tt.wantCommon)
			}
		})
	}
}

func TestInteractionFactor(t *testing.T) {
	halfLife := 14 * 24 * time.Hour
	tests := []struct {
		name string
		stat signals.InteractionStat
		want float64
	}{
		{"no interactions", signals.InteractionStat{}, 0},
		{"count without timestamp", signals.InteractionStat{Sent: 10}, 0},
		{"fresh and saturated", signals.InteractionStat{Sent: 40, Received: 40, Last: testNow}, 1},
		{"half volume", signals.InteractionStat{Sent: 25, Last: testNow}, 0.5},
		{"one half-life", signals.InteractionStat{Sent: 50, Last: testNow.Add(-halfLife)}, 0.5},
		{"two half-lives", signals.InteractionStat{Sent: 50, Last: testNow.Add(-2 * halfLife)}, 0.25},
		{"future timestamp", signals.InteractionStat{Sent: 50, Last: testNow.Add(time.Hour)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InteractionFactor(tt.stat, testNow, 50, halfLife)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("InteractionFactor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMutualFactor(t *testing.T) {
	tests := []struct {
		mutual int
		want   float64
	}{
		{0, 0},
		{-1, 0},
		{5, 0.5},
		{10, 1},
		{30, 1},
	}
	for _, tt := range tests {
		if got := MutualFactor(tt.mutual, 10); got != tt.want {
			t.Errorf("MutualFactor(%d) = %v, want %v", tt.mutual, got, tt.want)
		}
	}
}

func TestRankTieBreaks(t *testing.T) {
	cs := []Candidate{
		{UserID: "zed", Score: 50},
		{UserID: "amy", Score: 50},
		{UserID: "kim", Score: 50, LastInteraction: testNow.Add(-time.Hour)},
		{UserID: "lou", Score: 50, LastInteraction: testNow},
		{UserID: "top", Score: 90},
	}
	rank(cs)

	want := []string{"top", "lou", "kim", "amy", "zed"}
	if got := ids(cs); !equalIDs(got, want) {
		t.Errorf("rank() = %v, want %v", got, want)
	}
}

func TestWeightsNormalize(t *testing.T) {
	w := Weights{Interests: 2, Interaction: 2, Mutual: 1}.Normalize()
	if math.Abs(w.Interests-0.4) > 1e-9 || math.Abs(w.Mutual-0.2) > 1e-9 {
		t.Errorf("Normalize() = %+v, want 0.4/0.4/0.2", w)
	}

	zero := Weights{}.Normalize()
	if math.Abs(zero.Interests+zero.Interaction+zero.Mutual-1) > 1e-9 {
		t.Errorf("Normalize() of zero weights = %+v, want equal weights", zero)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative weight", func(c *Config) { c.Weights.Mutual = -1 }, true},
		{"zero volume cap", func(c *Config) { c.VolumeCap = 0 }, true},
		{"zero half-life", func(c *Config) { c.HalfLife = 0 }, true},
		{"zero mutual cap", func(c *Config) { c.MutualCap = 0 }, true},
		{"min score over 100", func(c *Config) { c.Filters.MinScore = 101 }, true},
		{"rejection filter without lookback", func(c *Config) { c.Filters.RejectionLookback = 0 }, true},
		{"max below default", func(c *Config) { c.Limits.MaxLimit = 1 }, true},
		{"cache without ttl", func(c *Config) { c.Cache.TTL = 0 }, true},
		{"disabled cache without ttl", func(c *Config) { c.Cache.Enabled = false; c.Cache.TTL = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
