package review

import (
	"strings"
	"testing"
)

func TestParseDimensionResult(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantScore float64
		wantErr   bool
	}{
		{
			name:      "bare JSON",
			content:   `{"score": 8.5, "strengths": ["clear"], "weaknesses": [], "suggestions": ["shorter title"], "confidence": 0.9}`,
			wantScore: 8.5,
		},
		{
			name:      "JSON wrapped in prose",
			content:   "Here is my evaluation:\n```json\n{\"score\": 6, \"confidence\": 0.8}\n```\nLet me know if you need more.",
			wantScore: 6,
		},
		{
			name:      "nested braces and quoted braces",
			content:   `{"score": 7, "strengths": ["uses {placeholders} well"], "confidence": 0.5}`,
			wantScore: 7,
		},
		{
			name:      "score above range clamped",
			content:   `{"score": 14, "confidence": 2}`,
			wantScore: 10,
		},
		{
			name:      "negative score clamped",
			content:   `{"score": -3}`,
			wantScore: 0,
		},
		{
			name:    "missing score",
			content: `{"strengths": ["fine"]}`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			content: "I think the post is pretty good, maybe an 8.",
			wantErr: true,
		},
		{
			name:    "malformed JSON",
			content: `{"score": }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDimensionResult("quality", tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDimensionResult: %v", err)
			}
			if result.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", result.Score, tt.wantScore)
			}
			if result.Dimension != "quality" {
				t.Errorf("dimension = %s", result.Dimension)
			}
		})
	}
}

func TestParseDimensionResult_ConfidenceDefaults(t *testing.T) {
	result, err := ParseDimensionResult("quality", `{"score": 5}`)
	if err != nil {
		t.Fatalf("ParseDimensionResult: %v", err)
	}
	if result.Confidence != 1 {
		t.Errorf("confidence = %v, want default 1", result.Confidence)
	}

	result, err = ParseDimensionResult("quality", `{"score": 5, "confidence": 1.7}`)
	if err != nil {
		t.Fatalf("ParseDimensionResult: %v", err)
	}
	if result.Confidence != 1 {
		t.Errorf("confidence = %v, want clamp to 1", result.Confidence)
	}
}

func TestDimensionPrompt(t *testing.T) {
	req := Request{
		Title: "Sydney in 3 Days",
		Body:  "Day one starts at the harbour.",
		Topic: "travel",
		Tags:  []string{"sydney", "itinerary"},
	}

	for _, dim := range []string{DimensionQuality, DimensionCompliance, DimensionEngagement, "tone"} {
		prompt := DimensionPrompt(dim, req)
		if !strings.Contains(prompt, req.Title) || !strings.Contains(prompt, req.Body) {
			t.Errorf("%s prompt missing draft content", dim)
		}
		if !strings.Contains(prompt, `"score"`) {
			t.Errorf("%s prompt missing JSON instruction", dim)
		}
	}

	compliance := DimensionPrompt(DimensionCompliance, req)
	if !strings.Contains(compliance, "violation") {
		t.Error("compliance prompt missing hard-floor instruction")
	}
}
