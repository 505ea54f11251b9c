package decision

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zen-systems/draftgate/pkg/executor"
	"github.com/zen-systems/draftgate/pkg/review"
)

// Engine turns per-dimension results into a single accept/ask/revise
// outcome. It performs no retries of its own; retries live in the router
// beneath each dimension unit.
type Engine struct {
	policy   Policy
	execOpts executor.Options
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithExecutorOptions sets worker-pool and per-task timeout settings for
// dimension dispatch.
func WithExecutorOptions(opts executor.Options) EngineOption {
	return func(e *Engine) { e.execOpts = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine validates the policy and creates an Engine.
func NewEngine(policy Policy, opts ...EngineOption) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decision policy: %w", err)
	}
	e := &Engine{policy: policy, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate runs every dimension unit in parallel and aggregates the results.
// Failures inside one dimension never abort siblings; only the compliance
// hard gate can force a global revise.
func (e *Engine) Evaluate(ctx context.Context, req review.Request, units []executor.Task[review.DimensionResult]) (*AggregateDecision, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("no dimension units to evaluate")
	}

	d := &AggregateDecision{
		ID:           uuid.NewString(),
		Request:      req,
		PerDimension: make(map[string]review.DimensionResult, len(units)),
		State:        StatePending,
	}

	d.State = StateDispatched
	execOpts := e.execOpts
	if execOpts.Logger == nil {
		execOpts.Logger = e.logger
	}
	outcomes := executor.RunAll(ctx, units, execOpts)

	for _, o := range outcomes {
		result := o.Value
		if o.Err != nil {
			result = review.DimensionResult{Dimension: o.Name, Err: o.Err}
		}
		if result.Dimension == "" {
			result.Dimension = o.Name
		}
		d.PerDimension[o.Name] = result
	}
	d.State = StateAggregated

	e.aggregate(d)

	e.logger.Info("evaluation complete",
		zap.String("id", d.ID),
		zap.Float64("overall_score", d.OverallScore),
		zap.String("action", string(d.Action)))
	return d, nil
}

func (e *Engine) aggregate(d *AggregateDecision) {
	// The compliance gate is checked before any weighting and can never be
	// outvoted. A missing result under deadline pressure lands here too.
	comp, ok := d.PerDimension[e.policy.ComplianceDimension]
	switch {
	case !ok:
		e.finish(d, ActionRevise, fmt.Sprintf("compliance dimension %q was not evaluated", e.policy.ComplianceDimension))
		return
	case comp.Err != nil:
		e.finish(d, ActionRevise, fmt.Sprintf("compliance check failed: %v", comp.Err))
		return
	case comp.Score < e.policy.ComplianceFloor:
		e.finish(d, ActionRevise, fmt.Sprintf("compliance score %.1f below floor %.1f", comp.Score, e.policy.ComplianceFloor))
		return
	}

	var weightSum, scoreSum float64
	var degraded []string
	for name, result := range d.PerDimension {
		if result.Err != nil {
			degraded = append(degraded, name)
			continue
		}
		w := e.policy.Weights[name]
		if w <= 0 {
			continue
		}
		scoreSum += w * result.Score
		weightSum += w
	}
	sort.Strings(degraded)

	if weightSum == 0 {
		e.finish(d, ActionRevise, withDegraded("no dimension produced a valid score", degraded))
		return
	}

	d.OverallScore = math.Round(scoreSum/weightSum*10) / 10

	switch {
	case d.OverallScore >= e.policy.ApproveThreshold:
		e.finish(d, ActionApprove, withDegraded(
			fmt.Sprintf("overall score %.1f meets the approve threshold %.1f", d.OverallScore, e.policy.ApproveThreshold), degraded))
	case d.OverallScore >= e.policy.AskUserThreshold:
		e.finish(d, ActionAskUser, withDegraded(
			fmt.Sprintf("overall score %.1f is acceptable but below the approve threshold %.1f", d.OverallScore, e.policy.ApproveThreshold), degraded))
	default:
		e.finish(d, ActionRevise, withDegraded(
			fmt.Sprintf("overall score %.1f below the ask-user threshold %.1f: %s", d.OverallScore, e.policy.AskUserThreshold, topWeaknesses(d)), degraded))
	}
}

func (e *Engine) finish(d *AggregateDecision, action Action, reason string) {
	d.Action = action
	d.Reason = reason
	switch action {
	case ActionApprove:
		d.State = StateApproved
	case ActionAskUser:
		d.State = StateAskUser
	default:
		d.State = StateRevise
	}
}

func withDegraded(reason string, degraded []string) string {
	if len(degraded) == 0 {
		return reason
	}
	return fmt.Sprintf("%s (degraded dimensions excluded from scoring: %s)", reason, strings.Join(degraded, ", "))
}

// topWeaknesses summarizes the accumulated weaknesses for the reason field.
func topWeaknesses(d *AggregateDecision) string {
	names := make([]string, 0, len(d.PerDimension))
	for name := range d.PerDimension {
		names = append(names, name)
	}
	sort.Strings(names)

	var weaknesses []string
	for _, name := range names {
		weaknesses = append(weaknesses, d.PerDimension[name].Weaknesses...)
	}
	if len(weaknesses) == 0 {
		return "accumulated low dimension scores"
	}
	if len(weaknesses) > 3 {
		weaknesses = weaknesses[:3]
	}
	return "weaknesses: " + strings.Join(weaknesses, "; ")
}
