package decision

import (
	"fmt"

	"github.com/zen-systems/draftgate/pkg/review"
)

// Action is the terminal outcome of an evaluation. ask_user is an expected,
// frequent outcome requiring a human in the loop, not a failure.
type Action string

const (
	ActionApprove Action = "approve"
	ActionAskUser Action = "ask_user"
	ActionRevise  Action = "revise"
)

// State tracks an evaluation's lifecycle. Terminal states are final for the
// decision instance; a second opinion requires a new evaluation.
type State string

const (
	StatePending    State = "pending"
	StateDispatched State = "dispatched"
	StateAggregated State = "aggregated"
	StateApproved   State = "approved"
	StateAskUser    State = "ask_user"
	StateRevise     State = "revise"
)

// AggregateDecision is the outcome of one evaluation. It lives only for the
// orchestration call that produced it.
type AggregateDecision struct {
	ID           string                            `json:"id"`
	Request      review.Request                    `json:"request"`
	OverallScore float64                           `json:"overall_score"`
	PerDimension map[string]review.DimensionResult `json:"per_dimension"`
	Action       Action                            `json:"action"`
	Reason       string                            `json:"reason"`
	State        State                             `json:"state"`
}

// Policy holds the weighting and threshold configuration for aggregation.
type Policy struct {
	// Weights per dimension name. Dimensions without a positive weight do
	// not contribute to the overall score.
	Weights map[string]float64
	// ApproveThreshold and AskUserThreshold map the weighted score to an
	// action: >= approve -> approve, >= ask_user -> ask_user, else revise.
	ApproveThreshold float64
	AskUserThreshold float64
	// ComplianceDimension names the hard gate: if its result is missing,
	// errored, or scores below ComplianceFloor, the action is revise
	// regardless of all other scores.
	ComplianceDimension string
	ComplianceFloor     float64
}

// DefaultPolicy mirrors the production review configuration.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[string]float64{
			review.DimensionEngagement: 0.4,
			review.DimensionQuality:    0.35,
			review.DimensionCompliance: 0.25,
		},
		ApproveThreshold:    8.0,
		AskUserThreshold:    6.0,
		ComplianceDimension: review.DimensionCompliance,
		ComplianceFloor:     7.0,
	}
}

// Validate rejects unusable policies at load time.
func (p Policy) Validate() error {
	if len(p.Weights) == 0 {
		return fmt.Errorf("policy has no dimension weights")
	}
	for name, w := range p.Weights {
		if w <= 0 {
			return fmt.Errorf("weight for dimension %s must be positive, got %v", name, w)
		}
	}
	if p.ApproveThreshold < p.AskUserThreshold {
		return fmt.Errorf("approve threshold %.1f below ask-user threshold %.1f",
			p.ApproveThreshold, p.AskUserThreshold)
	}
	if p.ComplianceDimension == "" {
		return fmt.Errorf("compliance dimension is required")
	}
	if p.ComplianceFloor < 0 || p.ComplianceFloor > 10 {
		return fmt.Errorf("compliance floor %v outside [0,10]", p.ComplianceFloor)
	}
	return nil
}
