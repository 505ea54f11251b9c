package review

import (
	"fmt"
	"strings"
)

// dimensionRubrics hold the evaluation criteria per built-in dimension.
var dimensionRubrics = map[string][]string{
	DimensionQuality: {
		"readability and clarity of the writing",
		"structure and logical flow",
		"depth and usefulness of the information",
		"grammar and wording",
	},
	DimensionCompliance: {
		"sensitive or prohibited topics",
		"advertising-law risks (absolute claims, unverifiable promises)",
		"platform rule violations",
		"misleading or unverifiable statements",
	},
	DimensionEngagement: {
		"hook strength of the title",
		"emotional resonance and relatability",
		"likelihood of saves, comments and shares",
		"call-to-action effectiveness",
	},
}

// DimensionPrompt builds the reviewer prompt for one dimension of a draft.
// Unknown dimensions get a generic rubric so custom dimensions still work.
func DimensionPrompt(dimension string, req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a strict %s reviewer for short-form social posts.\n\n", dimension)
	sb.WriteString("Evaluate the draft below on these criteria:\n")
	rubric, ok := dimensionRubrics[dimension]
	if !ok {
		rubric = []string{fmt.Sprintf("overall %s of the draft", dimension)}
	}
	for _, item := range rubric {
		fmt.Fprintf(&sb, "- %s\n", item)
	}

	sb.WriteString("\nDraft:\n---\n")
	fmt.Fprintf(&sb, "Title: %s\n", req.Title)
	if req.Topic != "" {
		fmt.Fprintf(&sb, "Topic: %s\n", req.Topic)
	}
	if len(req.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(req.Tags, ", "))
	}
	fmt.Fprintf(&sb, "\n%s\n---\n\n", req.Body)

	sb.WriteString("Respond with a single JSON object and nothing else:\n")
	sb.WriteString(`{"score": <0-10>, "strengths": [...], "weaknesses": [...], "suggestions": [...], "confidence": <0-1>}`)
	sb.WriteString("\n")
	if dimension == DimensionCompliance {
		sb.WriteString("Score 10 means fully compliant. Any concrete violation must score below 7.\n")
	}
	return sb.String()
}
