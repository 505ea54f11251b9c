package review

import (
	"encoding/json"
	"fmt"
)

// dimensionPayload is the JSON shape reviewers are instructed to emit.
type dimensionPayload struct {
	Score       *float64 `json:"score"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
	Confidence  *float64 `json:"confidence"`
}

// ParseDimensionResult extracts the reviewer's JSON verdict from model
// output. Models often wrap the JSON in prose or code fences, so the first
// balanced JSON object in the text is used.
func ParseDimensionResult(dimension, content string) (DimensionResult, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return DimensionResult{}, fmt.Errorf("dimension %s: no JSON object in reviewer output", dimension)
	}

	var payload dimensionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return DimensionResult{}, fmt.Errorf("dimension %s: parse reviewer output: %w", dimension, err)
	}
	if payload.Score == nil {
		return DimensionResult{}, fmt.Errorf("dimension %s: reviewer output missing score", dimension)
	}

	result := DimensionResult{
		Dimension:   dimension,
		Score:       clamp(*payload.Score, 0, 10),
		Strengths:   payload.Strengths,
		Weaknesses:  payload.Weaknesses,
		Suggestions: payload.Suggestions,
		Confidence:  1,
	}
	if payload.Confidence != nil {
		result.Confidence = clamp(*payload.Confidence, 0, 1)
	}
	return result, nil
}

// extractJSON returns the first balanced top-level JSON object in s.
func extractJSON(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
