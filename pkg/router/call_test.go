package router

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zen-systems/draftgate/pkg/adapter"
)

func twoModelChain() FallbackChain {
	return FallbackChain{
		Category: CategoryReview,
		Tier:     TierHigh,
		Models: []ModelSpec{
			{Name: "primary", Provider: "anthropic"},
			{Name: "secondary", Provider: "openai"},
		},
	}
}

func fastOpts() CallOptions {
	return CallOptions{
		MaxAttemptsPerHop: 3,
		BaseBackoff:       time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
	}
}

func TestCall_FirstModelSucceeds(t *testing.T) {
	var calls []string
	result, err := Call(context.Background(), twoModelChain(), func(_ context.Context, m ModelSpec) (string, error) {
		calls = append(calls, m.Name)
		return "ok", nil
	}, fastOpts())
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Value != "ok" || result.Model != "primary" {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(calls))
	}
}

func TestCall_TerminalErrorAdvancesWithoutRetry(t *testing.T) {
	perModel := map[string]int{}
	result, err := Call(context.Background(), twoModelChain(), func(_ context.Context, m ModelSpec) (string, error) {
		perModel[m.Name]++
		if m.Name == "primary" {
			return "", adapter.NewStatusError(400, errors.New("malformed request"))
		}
		return "from secondary", nil
	}, fastOpts())
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Model != "secondary" {
		t.Errorf("expected secondary to serve, got %s", result.Model)
	}
	if perModel["primary"] != 1 {
		t.Errorf("terminal error must not be retried: primary called %d times", perModel["primary"])
	}
	if perModel["secondary"] != 1 {
		t.Errorf("secondary attempted %d times, want exactly 1", perModel["secondary"])
	}
}

func TestCall_TransientErrorRetriedWithinHop(t *testing.T) {
	perModel := map[string]int{}
	result, err := Call(context.Background(), twoModelChain(), func(_ context.Context, m ModelSpec) (string, error) {
		perModel[m.Name]++
		if m.Name == "primary" && perModel[m.Name] < 3 {
			return "", adapter.NewStatusError(429, errors.New("rate limited"))
		}
		return "recovered", nil
	}, fastOpts())
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Model != "primary" {
		t.Errorf("expected primary after retries, got %s", result.Model)
	}
	if perModel["primary"] != 3 {
		t.Errorf("primary attempted %d times, want 3", perModel["primary"])
	}
	if perModel["secondary"] != 0 {
		t.Errorf("secondary should not have been attempted")
	}
}

func TestCall_ChainExhaustedIffAllFail(t *testing.T) {
	_, err := Call(context.Background(), twoModelChain(), func(_ context.Context, m ModelSpec) (string, error) {
		return "", adapter.NewStatusError(401, fmt.Errorf("auth failure on %s", m.Name))
	}, fastOpts())
	if err == nil {
		t.Fatal("expected error")
	}
	var exhausted *ChainExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ChainExhaustedError, got %T: %v", err, err)
	}
	if len(exhausted.Attempted) != 2 {
		t.Errorf("attempted list %v, want both models", exhausted.Attempted)
	}
	if exhausted.Attempted[0] != "primary" || exhausted.Attempted[1] != "secondary" {
		t.Errorf("attempted order %v", exhausted.Attempted)
	}
}

func TestCall_SingleModelChainRetries(t *testing.T) {
	chain := FallbackChain{
		Category: CategoryReview,
		Tier:     TierFast,
		Models:   []ModelSpec{{Name: "only", Provider: "openai"}},
	}
	calls := 0
	_, err := Call(context.Background(), chain, func(_ context.Context, _ ModelSpec) (string, error) {
		calls++
		return "", adapter.NewTransientError(errors.New("timeout"))
	}, fastOpts())
	var exhausted *ChainExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ChainExhaustedError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts on single-model chain, got %d", calls)
	}
}

func TestCall_EmptyChainRejected(t *testing.T) {
	_, err := Call(context.Background(), FallbackChain{Category: CategoryReview, Tier: TierFast}, func(_ context.Context, _ ModelSpec) (string, error) {
		return "never", nil
	}, fastOpts())
	if err == nil {
		t.Fatal("expected configuration error for empty chain")
	}
}

func TestCall_SkipsUnavailableModels(t *testing.T) {
	var calls []string
	opts := fastOpts()
	opts.Available = func(m ModelSpec) bool { return m.Name != "primary" }

	result, err := Call(context.Background(), twoModelChain(), func(_ context.Context, m ModelSpec) (string, error) {
		calls = append(calls, m.Name)
		return "ok", nil
	}, opts)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Model != "secondary" {
		t.Errorf("expected secondary, got %s", result.Model)
	}
	if len(calls) != 1 || calls[0] != "secondary" {
		t.Errorf("unavailable model was invoked: %v", calls)
	}
}

func TestCall_AllUnavailable(t *testing.T) {
	opts := fastOpts()
	opts.Available = func(ModelSpec) bool { return false }

	_, err := Call(context.Background(), twoModelChain(), func(_ context.Context, _ ModelSpec) (string, error) {
		t.Fatal("invoke must not run")
		return "", nil
	}, opts)
	var exhausted *ChainExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ChainExhaustedError, got %v", err)
	}
	if len(exhausted.Attempted) != 0 {
		t.Errorf("skipped models must not count as attempted: %v", exhausted.Attempted)
	}
}

func TestCall_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Call(ctx, twoModelChain(), func(_ context.Context, _ ModelSpec) (string, error) {
		calls++
		cancel()
		return "", context.Canceled
	}, fastOpts())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected no further attempts after cancellation, got %d", calls)
	}
}

func TestComputeBackoff(t *testing.T) {
	base := 200 * time.Millisecond
	max := 2 * time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 200 * time.Millisecond},
		{1, 400 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{3, 1600 * time.Millisecond},
		{4, 2 * time.Second},
		{10, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := computeBackoff(base, max, tt.attempt); got != tt.want {
			t.Errorf("computeBackoff(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
