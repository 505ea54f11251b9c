package decision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zen-systems/draftgate/pkg/executor"
	"github.com/zen-systems/draftgate/pkg/review"
)

func scoreUnit(dimension string, score float64) executor.Task[review.DimensionResult] {
	return executor.Task[review.DimensionResult]{
		Name: dimension,
		Run: func(ctx context.Context) (review.DimensionResult, error) {
			return review.DimensionResult{Dimension: dimension, Score: score, Confidence: 1}, nil
		},
	}
}

func failingUnit(dimension string, err error) executor.Task[review.DimensionResult] {
	return executor.Task[review.DimensionResult]{
		Name: dimension,
		Run: func(ctx context.Context) (review.DimensionResult, error) {
			return review.DimensionResult{Dimension: dimension, Err: err}, err
		},
	}
}

func testPolicy() Policy {
	return Policy{
		Weights: map[string]float64{
			review.DimensionQuality:    0.4,
			review.DimensionEngagement: 0.3,
			review.DimensionCompliance: 0.3,
		},
		ApproveThreshold:    8.0,
		AskUserThreshold:    6.0,
		ComplianceDimension: review.DimensionCompliance,
		ComplianceFloor:     7.0,
	}
}

func testRequest() review.Request {
	return review.Request{Title: "Sydney in 3 Days", Body: "Day one starts at the harbour.", Topic: "travel"}
}

func TestEngine_WeightedApprove(t *testing.T) {
	engine, err := NewEngine(testPolicy())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	units := []executor.Task[review.DimensionResult]{
		scoreUnit(review.DimensionQuality, 9),
		scoreUnit(review.DimensionEngagement, 8),
		scoreUnit(review.DimensionCompliance, 9),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.OverallScore != 8.7 {
		t.Errorf("overall score = %v, want 8.7", d.OverallScore)
	}
	if d.Action != ActionApprove {
		t.Errorf("action = %s, want approve", d.Action)
	}
	if d.State != StateApproved {
		t.Errorf("state = %s, want approved", d.State)
	}
	if d.ID == "" {
		t.Error("decision ID must be set")
	}
	if len(d.PerDimension) != 3 {
		t.Errorf("per-dimension results = %d, want 3", len(d.PerDimension))
	}
}

func TestEngine_ComplianceFloorForcesRevise(t *testing.T) {
	engine, _ := NewEngine(testPolicy())

	// Identical to the approve case except compliance, which lands below
	// the floor. The high weighted mean must not matter.
	units := []executor.Task[review.DimensionResult]{
		scoreUnit(review.DimensionQuality, 9),
		scoreUnit(review.DimensionEngagement, 8),
		scoreUnit(review.DimensionCompliance, 2),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Action != ActionRevise {
		t.Errorf("action = %s, want revise", d.Action)
	}
	if d.State != StateRevise {
		t.Errorf("state = %s, want revise", d.State)
	}
	if !strings.Contains(d.Reason, "compliance") {
		t.Errorf("reason should name the compliance gate, got %q", d.Reason)
	}
}

func TestEngine_ComplianceErroredForcesRevise(t *testing.T) {
	engine, _ := NewEngine(testPolicy())

	units := []executor.Task[review.DimensionResult]{
		scoreUnit(review.DimensionQuality, 10),
		scoreUnit(review.DimensionEngagement, 10),
		failingUnit(review.DimensionCompliance, errors.New("upstream unavailable")),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Action != ActionRevise {
		t.Errorf("action = %s, want revise when compliance cannot be verified", d.Action)
	}
}

func TestEngine_ComplianceMissingForcesRevise(t *testing.T) {
	engine, _ := NewEngine(testPolicy())

	units := []executor.Task[review.DimensionResult]{
		scoreUnit(review.DimensionQuality, 10),
		scoreUnit(review.DimensionEngagement, 10),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Action != ActionRevise {
		t.Errorf("action = %s, want revise when compliance was never evaluated", d.Action)
	}
}

func TestEngine_ErroredDimensionExcludedFromScore(t *testing.T) {
	engine, _ := NewEngine(testPolicy())

	// Engagement fails; the score is the weighted mean of quality and
	// compliance only: (0.4*9 + 0.3*9) / 0.7 = 9.0.
	units := []executor.Task[review.DimensionResult]{
		scoreUnit(review.DimensionQuality, 9),
		failingUnit(review.DimensionEngagement, errors.New("timeout")),
		scoreUnit(review.DimensionCompliance, 9),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.OverallScore != 9.0 {
		t.Errorf("overall score = %v, want 9.0 over the remaining weights", d.OverallScore)
	}
	if d.Action != ActionApprove {
		t.Errorf("action = %s, want approve", d.Action)
	}
	if !strings.Contains(d.Reason, review.DimensionEngagement) {
		t.Errorf("reason should mention the degraded dimension, got %q", d.Reason)
	}
}

func TestEngine_MidScoreAsksUser(t *testing.T) {
	engine, _ := NewEngine(testPolicy())

	units := []executor.Task[review.DimensionResult]{
		scoreUnit(review.DimensionQuality, 7),
		scoreUnit(review.DimensionEngagement, 6),
		scoreUnit(review.DimensionCompliance, 8),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// (0.4*7 + 0.3*6 + 0.3*8) = 7.0
	if d.OverallScore != 7.0 {
		t.Errorf("overall score = %v, want 7.0", d.OverallScore)
	}
	if d.Action != ActionAskUser {
		t.Errorf("action = %s, want ask_user", d.Action)
	}
	if d.State != StateAskUser {
		t.Errorf("state = %s, want ask_user", d.State)
	}
}

func TestEngine_LowScoreRevises(t *testing.T) {
	engine, _ := NewEngine(testPolicy())

	units := []executor.Task[review.DimensionResult]{
		{
			Name: review.DimensionQuality,
			Run: func(ctx context.Context) (review.DimensionResult, error) {
				return review.DimensionResult{
					Dimension:  review.DimensionQuality,
					Score:      4,
					Weaknesses: []string{"title buries the hook"},
					Confidence: 1,
				}, nil
			},
		},
		scoreUnit(review.DimensionEngagement, 5),
		scoreUnit(review.DimensionCompliance, 8),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Action != ActionRevise {
		t.Errorf("action = %s, want revise", d.Action)
	}
	if !strings.Contains(d.Reason, "title buries the hook") {
		t.Errorf("reason should carry a concrete weakness, got %q", d.Reason)
	}
}

func TestEngine_ScoreMonotonicity(t *testing.T) {
	engine, _ := NewEngine(testPolicy())

	evaluate := func(quality float64) float64 {
		units := []executor.Task[review.DimensionResult]{
			scoreUnit(review.DimensionQuality, quality),
			scoreUnit(review.DimensionEngagement, 7),
			scoreUnit(review.DimensionCompliance, 8),
		}
		d, err := engine.Evaluate(context.Background(), testRequest(), units)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		return d.OverallScore
	}

	prev := evaluate(0)
	for quality := 1.0; quality <= 10; quality++ {
		got := evaluate(quality)
		if got < prev {
			t.Errorf("score decreased from %v to %v as quality rose to %v", prev, got, quality)
		}
		prev = got
	}
}

func TestEngine_AllDimensionsErroredRevises(t *testing.T) {
	engine, _ := NewEngine(Policy{
		Weights:             map[string]float64{review.DimensionQuality: 1},
		ApproveThreshold:    8,
		AskUserThreshold:    6,
		ComplianceDimension: review.DimensionQuality,
		ComplianceFloor:     0,
	})

	// A floor of zero lets an errored-but-present gate pass only on a real
	// score. Here the gate itself errors, so revise.
	units := []executor.Task[review.DimensionResult]{
		failingUnit(review.DimensionQuality, errors.New("timeout")),
	}
	d, err := engine.Evaluate(context.Background(), testRequest(), units)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Action != ActionRevise {
		t.Errorf("action = %s, want revise", d.Action)
	}
}

func TestEngine_RejectsEmptyUnits(t *testing.T) {
	engine, _ := NewEngine(testPolicy())
	if _, err := engine.Evaluate(context.Background(), testRequest(), nil); err == nil {
		t.Fatal("expected error for empty unit list")
	}
}

func TestNewEngine_RejectsInvalidPolicy(t *testing.T) {
	bad := []Policy{
		{},
		{Weights: map[string]float64{"quality": -1}, ComplianceDimension: "quality"},
		{Weights: map[string]float64{"quality": 1}, ApproveThreshold: 5, AskUserThreshold: 6, ComplianceDimension: "quality"},
		{Weights: map[string]float64{"quality": 1}, ApproveThreshold: 8, AskUserThreshold: 6},
		{Weights: map[string]float64{"quality": 1}, ApproveThreshold: 8, AskUserThreshold: 6, ComplianceDimension: "quality", ComplianceFloor: 12},
	}
	for i, p := range bad {
		if _, err := NewEngine(p); err == nil {
			t.Errorf("policy %d should be rejected", i)
		}
	}
}
