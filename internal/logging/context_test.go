// Bondscore - Reciprocal Relationship Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bondscore

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("RequestIDFromContext(empty) = %q, want empty", got)
	}
	ctx = ContextWithRequestID(ctx, "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q, want req-1", got)
	}
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if len(a) != 36 || a == b {
		t.Errorf("GenerateRequestID() = %q, %q; want distinct UUIDs", a, b)
	}
}

func TestCtx(t *testing.T) {
	defer Init(DefaultConfig())

	tests := []struct {
		name    string
		ctx     func() context.Context
		want    []string
		wantNot []string
	}{
		{
			name: "request and user",
			ctx: func() context.Context {
				ctx := ContextWithRequestID(context.Background(), "req-42")
				return ContextWithUserID(ctx, "bob")
			},
			want: []string{`"request_id":"req-42"`, `"user_id":"bob"`},
		},
		{
			name:    "bare context",
			ctx:     context.Background,
			wantNot: []string{"request_id", "user_id"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Init(Config{Level: "info", Format: "json", Output: &buf})
			Ctx(tt.ctx()).Info().Msg("handled")

			out := buf.String()
			if !strings.Contains(out, "handled") {
				t.Fatalf("output %q missing message", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			for _, w := range tt.wantNot {
				if strings.Contains(out, w) {
					t.Errorf("output %q contains %q", out, w)
				}
			}
		})
	}
}
