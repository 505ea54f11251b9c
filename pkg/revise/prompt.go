package revise

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zen-systems/draftgate/pkg/decision"
)

// GenerateRevisionPrompt creates a prompt asking a model to rework a draft
// that the decision engine sent back for revision. Feedback is grouped per
// dimension in a stable order so repeated runs produce the same prompt.
func GenerateRevisionPrompt(d *decision.AggregateDecision) string {
	var sb strings.Builder

	sb.WriteString("The following draft did not pass review:\n\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", d.Request.Title))
	sb.WriteString("---\n")
	sb.WriteString(d.Request.Body)
	sb.WriteString("\n---\n\n")

	sb.WriteString(fmt.Sprintf("Verdict: %s\n", d.Reason))

	names := make([]string, 0, len(d.PerDimension))
	for name := range d.PerDimension {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("\nReview feedback:\n")
	for _, name := range names {
		result := d.PerDimension[name]
		if result.Err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("- [%s] score %.1f\n", name, result.Score))
		for _, w := range result.Weaknesses {
			sb.WriteString(fmt.Sprintf("  Weakness: %s\n", w))
		}
		for _, s := range result.Suggestions {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", s))
		}
	}

	sb.WriteString("\nRewrite the draft to address every weakness and suggestion above.\n")
	sb.WriteString("Keep the topic and the author's voice. Return only the revised title and body.\n")

	return sb.String()
}

// GenerateEscalationPrompt creates a stronger prompt when revisions keep
// failing the same checks.
func GenerateEscalationPrompt(d *decision.AggregateDecision, previous string) string {
	var sb strings.Builder

	sb.WriteString("Previous revisions keep failing the same review checks.\n")
	sb.WriteString("Do NOT produce a minor edit; restructure the draft.\n\n")

	sb.WriteString(fmt.Sprintf("Verdict: %s\n", d.Reason))

	sb.WriteString("\nLast attempt:\n---\n")
	sb.WriteString(previous)
	sb.WriteString("\n---\n")
	sb.WriteString("\nProvide a rewritten draft that resolves the verdict above.\n")

	return sb.String()
}
