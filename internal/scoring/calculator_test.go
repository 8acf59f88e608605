// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/bondscore/internal/models"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	return c
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBasePointsTable(t *testing.T) {
	c := newTestCalculator(t)

	tests := []struct {
		kind models.ActivityType
		want float64
	}{
		{models.ActivityLike, 1},
		{models.ActivityComment, 3},
		{models.ActivityShare, 5},
		{models.ActivityView, 0.5},
		{models.ActivitySave, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			b, err := c.Score(tt.kind, models.Metadata{})
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if b.Base != tt.want {
				t.Errorf("Base = %v, want %v", b.Base, tt.want)
			}
			if b.Total != tt.want {
				t.Errorf("Total = %v, want %v", b.Total, tt.want)
			}
		})
	}
}

func TestContentMultiplier(t *testing.T) {
	c := newTestCalculator(t)

	tests := []struct {
		content models.ContentType
		want    float64
	}{
		{"", 5},
		{models.ContentText, 5},
		{models.ContentImage, 6},
		{models.ContentAudio, 6.5},
		{models.ContentVideo, 7.5},
		{"hologram", 5},
	}

	for _, tt := range tests {
		b, err := c.Score(models.ActivityShare, models.Metadata{ContentType: tt.content})
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if !approx(b.Total, tt.want) {
			t.Errorf("share with %q content: Total = %v, want %v", tt.content, b.Total, tt.want)
		}
	}
}

func TestSpeedBonusMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for m := 0.0; m <= 400; m += 0.5 {
		got := SpeedBonus(models.Ptr(m))
		if got < 0 {
			t.Fatalf("SpeedBonus(%v) = %v, must not be negative", m, got)
		}
		if got > prev {
			t.Fatalf("SpeedBonus(%v) = %v increased from %v", m, got, prev)
		}
		if m > 180 && got != 0 {
			t.Fatalf("SpeedBonus(%v) = %v, want 0 past the cutoff", m, got)
		}
		prev = got
	}
}

func TestSpeedBonusSteps(t *testing.T) {
	tests := []struct {
		minutes *float64
		want    float64
	}{
		{nil, 0},
		{models.Ptr(0.0), 3},
		{models.Ptr(5.0), 3},
		{models.Ptr(5.1), 2},
		{models.Ptr(15.0), 2},
		{models.Ptr(60.0), 1},
		{models.Ptr(180.0), 0.5},
		{models.Ptr(181.0), 0},
		{models.Ptr(-4.0), 0},
		{models.Ptr(math.NaN()), 0},
	}
	for _, tt := range tests {
		if got := SpeedBonus(tt.minutes); got != tt.want {
			t.Errorf("SpeedBonus(%v) = %v, want %v", deref(tt.minutes), got, tt.want)
		}
	}
}

func deref(v *float64) any {
	if v == nil {
		return "nil"
	}
	return *v
}

func TestReciprocalBonus(t *testing.T) {
	tests := []struct {
		name       string
		reciprocal bool
		days       *int
		want       float64
	}{
		{"not reciprocal", false, models.Ptr(20), 0},
		{"flat", true, nil, 2},
		{"two days", true, models.Ptr(2), 2},
		{"three days", true, models.Ptr(3), 3},
		{"seven days", true, models.Ptr(7), 4},
		{"fourteen days", true, models.Ptr(14), 5},
	}
	for _, tt := range tests {
		if got := ReciprocalBonus(tt.reciprocal, tt.days); got != tt.want {
			t.Errorf("%s: ReciprocalBonus() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTopicBonus(t *testing.T) {
	tests := []struct {
		sim  *float64
		want float64
	}{
		{nil, 0},
		{models.Ptr(0.3), 0},
		{models.Ptr(0.5), 0},
		{models.Ptr(0.75), 1},
		{models.Ptr(1.0), 2},
		{models.Ptr(3.0), 2},
	}
	for _, tt := range tests {
		if got := TopicBonus(tt.sim); got != tt.want {
			t.Errorf("TopicBonus(%v) = %v, want %v", deref(tt.sim), got, tt.want)
		}
	}
}

func TestConsistencyAndTimeBonus(t *testing.T) {
	days := map[int]float64{0: 0, 2: 0, 3: 0.5, 7: 1, 14: 2, 29: 2, 30: 3, 100: 3}
	for d, want := range days {
		if got := ConsistencyBonus(models.Ptr(d)); got != want {
			t.Errorf("ConsistencyBonus(%d) = %v, want %v", d, got, want)
		}
	}

	if got := TimeBonus(models.TimeLateNight, nil); got != 0.5 {
		t.Errorf("TimeBonus(late_night) = %v, want 0.5", got)
	}
	if got := TimeBonus(models.TimeAfternoon, models.Ptr(true)); got != 1 {
		t.Errorf("TimeBonus(afternoon, first) = %v, want 1", got)
	}
	if got := TimeBonus(models.TimeEarlyMorning, models.Ptr(true)); got != 1.5 {
		t.Errorf("TimeBonus(early_morning, first) = %v, want 1.5", got)
	}
}

func TestFastReciprocalStreak(t *testing.T) {
	c := newTestCalculator(t)

	b, err := c.Score(models.ActivityComment, models.Metadata{
		ElapsedMinutes:  models.Ptr(3.0),
		Reciprocal:      models.Ptr(true),
		ConsecutiveDays: models.Ptr(10),
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if b.Speed == 0 || b.Reciprocal == 0 || b.Consistency == 0 {
		t.Errorf("expected speed, reciprocal and consistency bonuses, got %+v", b)
	}
	if b.Total <= 10 {
		t.Errorf("Total = %v, want > 10", b.Total)
	}
	// 3 base + 3 speed + 4 reciprocal + 1 consistency
	if b.Total != 11 {
		t.Errorf("Total = %v, want 11", b.Total)
	}
}

func TestSlowOneWayInteraction(t *testing.T) {
	c := newTestCalculator(t)
	md := models.Metadata{
		ElapsedMinutes:  models.Ptr(240.0),
		Reciprocal:      models.Ptr(false),
		ConsecutiveDays: models.Ptr(1),
	}

	for _, kind := range []models.ActivityType{models.ActivityLike, models.ActivityView, models.ActivitySave} {
		b, err := c.Score(kind, md)
		if err != nil {
			t.Fatalf("Score(%s) error = %v", kind, err)
		}
		if b.Total > 2 {
			t.Errorf("Score(%s).Total = %v, want <= 2", kind, b.Total)
		}
		if b.Bonuses() != 0 {
			t.Errorf("Score(%s) bonuses = %v, want 0", kind, b.Bonuses())
		}
	}
}

func TestMultiplierScalesBaseOnly(t *testing.T) {
	c := newTestCalculator(t)
	b, err := c.Score(models.ActivityShare, models.Metadata{
		ContentType:    models.ContentVideo,
		ElapsedMinutes: models.Ptr(1.0),
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	// 5 * 1.5 + 3
	if b.Total != 10.5 {
		t.Errorf("Total = %v, want 10.5", b.Total)
	}
}

func TestSpecialActivities(t *testing.T) {
	c := newTestCalculator(t)

	tests := []struct {
		name string
		kind models.ActivityType
		md   models.Metadata
		want float64
	}{
		{"voice call", models.ActivityVoiceCall, models.Metadata{}, 8},
		{"video call with duration", models.ActivityVideoCall, models.Metadata{CallDurationMinutes: models.Ptr(35.0)}, 13},
		{"long video call capped", models.ActivityVideoCall, models.Metadata{CallDurationMinutes: models.Ptr(500.0)}, 20},
		{"meetup ignores bonuses", models.ActivityMeetup, models.Metadata{ElapsedMinutes: models.Ptr(1.0), Reciprocal: models.Ptr(true)}, 15},
		{"streak bonus", models.ActivityStreakBonus, models.Metadata{}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := c.Score(tt.kind, tt.md)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if !b.Special {
				t.Error("Special = false, want true")
			}
			if b.Total != tt.want {
				t.Errorf("Total = %v, want %v", b.Total, tt.want)
			}
		})
	}
}

func TestUnknownActivity(t *testing.T) {
	c := newTestCalculator(t)
	if _, err := c.Score("poke", models.Metadata{}); !errors.Is(err, ErrUnknownActivity) {
		t.Errorf("Score(poke) error = %v, want ErrUnknownActivity", err)
	}
	if c.Known("poke") {
		t.Error("Known(poke) = true")
	}
	if !c.Known(models.ActivityMeetup) {
		t.Error("Known(meetup) = false")
	}
}

func TestSplit(t *testing.T) {
	c := newTestCalculator(t)

	actor, counterpart := c.Split(10, false)
	if actor != 10 || counterpart != 3 {
		t.Errorf("Split(10, false) = %v/%v, want 10/3", actor, counterpart)
	}
	actor, counterpart = c.Split(10, true)
	if actor != 10 || counterpart != 8 {
		t.Errorf("Split(10, true) = %v/%v, want 10/8", actor, counterpart)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base table", func(c *Config) { c.BasePoints = nil }},
		{"negative base", func(c *Config) { c.BasePoints[models.ActivityLike] = -1 }},
		{"overlapping tables", func(c *Config) { c.SpecialPoints[models.ActivityLike] = 4 }},
		{"zero multiplier", func(c *Config) { c.ContentMultipliers[models.ContentVideo] = 0 }},
		{"split above one", func(c *Config) { c.Split.Actor = 1.5 }},
		{"reciprocal share below one-way", func(c *Config) { c.Split.ReciprocalCounterpart = 0.1 }},
		{"zero call minutes", func(c *Config) { c.CallMinutesPerPoint = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewCalculator(cfg); err == nil {
				t.Error("NewCalculator() accepted an invalid config")
			}
		})
	}
}
