// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/bondscore/internal/signals"
)

// Jaccard returns |a ∩ b| / |a ∪ b| together with the sorted intersection.
// Two empty sets have similarity 0.
func Jaccard(a, b []string) (float64, []string) {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}

	var common []string
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			common = append(common, v)
		} else {
			union++
		}
	}
	if union == 0 {
		return 0, nil
	}
	sort.Strings(common)
	return float64(len(common)) / float64(union), common
}

// InteractionFactor returns volume x recency for an interaction summary.
// A zero Last timestamp or zero count yields 0.
func InteractionFactor(stat signals.InteractionStat, now time.Time, volumeCap int, halfLife time.Duration) float64 {
	count := stat.Total()
	if count == 0 || stat.Last.IsZero() || volumeCap <= 0 || halfLife <= 0 {
		return 0
	}
	volume := math.Min(float64(count)/float64(volumeCap), 1)

	age := now.Sub(stat.Last)
	if age < 0 {
		age = 0
	}
	recency := math.Pow(0.5, age.Hours()/halfLife.Hours())
	return volume * recency
}

// MutualFactor returns min(mutual/mutualCap, 1).
func MutualFactor(mutual, mutualCap int) float64 {
	if mutual <= 0 || mutualCap <= 0 {
		return 0
	}
	return math.Min(float64(mutual)/float64(mutualCap), 1)
}

// signalSet is everything known about one candidate.
type signalSet struct {
	requesterInterests []string
	interests          []string
	stat               signals.InteractionStat
	mutual             int
}

// score builds a scored candidate from its signals.
func (r *Recommender) score(userID string, s signalSet, now time.Time) Candidate {
	interest, common := Jaccard(s.requesterInterests, s.interests)
	b := Breakdown{
		Interest:    interest,
		Interaction: InteractionFactor(s.stat, now, r.cfg.VolumeCap, r.cfg.HalfLife),
		Mutual:      MutualFactor(s.mutual, r.cfg.MutualCap),
	}
	w := r.weights
	raw := w.Interests*b.Interest + w.Interaction*b.Interaction + w.Mutual*b.Mutual

	c := Candidate{
		UserID:            userID,
		Score:             math.Round(100*raw*100) / 100,
		Breakdown:         b,
		CommonInterests:   common,
		MutualConnections: s.mutual,
		Interactions:      s.stat.Total(),
		LastInteraction:   s.stat.Last,
	}
	c.Reason = reason(&c, w)
	return c
}

// reason names the signal contributing the most to the score.
//
//nolint:gocritic // Weights is small and read-only
func reason(c *Candidate, w Weights) string {
	interest := w.Interests * c.Breakdown.Interest
	interaction := w.Interaction * c.Breakdown.Interaction
	mutual := w.Mutual * c.Breakdown.Mutual

	switch {
	case interest == 0 && interaction == 0 && mutual == 0:
		return "new connection"
	case interest >= interaction && interest >= mutual:
		if len(c.CommonInterests) == 1 {
			return "shares an interest in " + c.CommonInterests[0]
		}
		return fmt.Sprintf("%d shared interests", len(c.CommonInterests))
	case interaction >= mutual:
		return fmt.Sprintf("%d recent interactions", c.Interactions)
	default:
		return fmt.Sprintf("%d mutual connections", c.MutualConnections)
	}
}

// rank orders candidates by score, then more recent last interaction, then user id.
func rank(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.LastInteraction.Equal(b.LastInteraction) {
			return a.LastInteraction.After(b.LastInteraction)
		}
		return a.UserID < b.UserID
	})
}
