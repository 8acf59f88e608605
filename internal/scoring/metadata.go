// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bondscore/internal/models"
)

// Accepted keys for each field. The first entry is the canonical name.
var metadataKeys = struct {
	contentType, elapsed, reciprocal, consecutive, topic, timeOfDay, firstOfDay, callDuration []string
}{
	contentType:  []string{"content_type", "contentType"},
	elapsed:      []string{"elapsed_minutes", "time_since_post_minutes", "timeSincePost"},
	reciprocal:   []string{"reciprocal", "is_reciprocal", "isReciprocal"},
	consecutive:  []string{"consecutive_days", "consecutiveDays"},
	topic:        []string{"topic_similarity", "topicSimilarity"},
	timeOfDay:    []string{"time_of_day", "timeOfDay"},
	firstOfDay:   []string{"first_of_day", "first_interaction_of_day", "isFirstInteractionToday"},
	callDuration: []string{"call_duration_minutes", "duration_minutes", "duration"},
}

// ParseMetadata decodes a loosely shaped map into typed Metadata. Values of
// the wrong type or out of range are dropped so that they earn no bonus.
func ParseMetadata(raw map[string]any) models.Metadata {
	var md models.Metadata
	if len(raw) == 0 {
		return md
	}

	if s, ok := lookupString(raw, metadataKeys.contentType); ok {
		md.ContentType = models.ContentType(strings.ToLower(s))
	}
	if f, ok := lookupFloat(raw, metadataKeys.elapsed); ok && f >= 0 {
		md.ElapsedMinutes = models.Ptr(f)
	}
	if b, ok := lookupBool(raw, metadataKeys.reciprocal); ok {
		md.Reciprocal = models.Ptr(b)
	}
	if f, ok := lookupFloat(raw, metadataKeys.consecutive); ok && f >= 0 && f <= math.MaxInt32 {
		md.ConsecutiveDays = models.Ptr(int(f))
	}
	if f, ok := lookupFloat(raw, metadataKeys.topic); ok && f >= 0 && f <= 1 {
		md.TopicSimilarity = models.Ptr(f)
	}
	if s, ok := lookupString(raw, metadataKeys.timeOfDay); ok {
		md.TimeOfDay = models.TimeBucket(strings.ToLower(s))
	}
	if b, ok := lookupBool(raw, metadataKeys.firstOfDay); ok {
		md.FirstOfDay = models.Ptr(b)
	}
	if f, ok := lookupFloat(raw, metadataKeys.callDuration); ok && f >= 0 {
		md.CallDurationMinutes = models.Ptr(f)
	}
	return md
}

// ParseMetadataJSON decodes a JSON object with ParseMetadata. Malformed
// input yields empty metadata.
func ParseMetadataJSON(data []byte) models.Metadata {
	if len(data) == 0 {
		return models.Metadata{}
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Metadata{}
	}
	return ParseMetadata(raw)
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(raw map[string]any, keys []string) (string, bool) {
	v, ok := lookup(raw, keys)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func lookupFloat(raw map[string]any, keys []string) (float64, bool) {
	v, ok := lookup(raw, keys)
	if !ok {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func lookupBool(raw map[string]any, keys []string) (bool, bool) {
	v, ok := lookup(raw, keys)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}
