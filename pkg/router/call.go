package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zen-systems/draftgate/pkg/adapter"
)

// InvokeFunc performs the upstream call for one model in a chain. The router
// does not know what the call does, only how its error classifies.
type InvokeFunc func(ctx context.Context, model ModelSpec) (string, error)

// CallOptions configures retry and availability behavior for Call.
type CallOptions struct {
	// MaxAttemptsPerHop bounds attempts against a single model before the
	// chain advances. Zero means the default of 3.
	MaxAttemptsPerHop int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	// Available, when set, is consulted before each hop; models reporting
	// unavailable are skipped without consuming attempts.
	Available func(ModelSpec) bool
	Logger    *zap.Logger
}

// AttemptReport records one upstream attempt for diagnostics.
type AttemptReport struct {
	Model     string `json:"model"`
	Provider  string `json:"provider"`
	Attempt   int    `json:"attempt"`
	Transient bool   `json:"transient,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result carries a successful chain invocation.
type Result struct {
	Value   string
	Model   string
	Reports []AttemptReport
}

// ChainExhaustedError reports that every model in a chain failed. It carries
// the attempted model names and the last error observed.
type ChainExhaustedError struct {
	Category  TaskCategory
	Tier      QualityTier
	Attempted []string
	Err       error
}

func (e *ChainExhaustedError) Error() string {
	return fmt.Sprintf("chain %s/%s exhausted after trying [%s]: %v",
		e.Category, e.Tier, strings.Join(e.Attempted, ", "), e.Err)
}

func (e *ChainExhaustedError) Unwrap() error {
	return e.Err
}

// Call iterates the chain in order, attempting invoke against each model with
// bounded retries. Only transient errors are retried within a hop; terminal
// errors advance the chain immediately. A nil error return guarantees a
// non-nil Result naming the model that served the call.
func Call(ctx context.Context, chain FallbackChain, invoke InvokeFunc, opts CallOptions) (*Result, error) {
	if len(chain.Models) == 0 {
		return nil, fmt.Errorf("chain %s/%s is empty", chain.Category, chain.Tier)
	}

	maxAttempts := opts.MaxAttemptsPerHop
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	baseBackoff := opts.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 200 * time.Millisecond
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff < baseBackoff {
		maxBackoff = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var reports []AttemptReport
	var attempted []string
	var lastErr error

	for hop, model := range chain.Models {
		if opts.Available != nil && !opts.Available(model) {
			logger.Debug("skipping unavailable model",
				zap.String("model", model.Name), zap.String("provider", model.Provider))
			continue
		}
		attempted = append(attempted, model.Name)
		if hop > 0 {
			fallbacksTotal.Inc()
		}

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			value, err := invoke(ctx, model)
			if err == nil {
				attemptsTotal.WithLabelValues(model.Provider, "success").Inc()
				reports = append(reports, AttemptReport{Model: model.Name, Provider: model.Provider, Attempt: attempt})
				return &Result{Value: value, Model: model.Name, Reports: reports}, nil
			}

			lastErr = err
			transient := adapter.IsTransient(err)
			reports = append(reports, AttemptReport{
				Model:     model.Name,
				Provider:  model.Provider,
				Attempt:   attempt,
				Transient: transient,
				Error:     err.Error(),
			})

			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil, err
			}
			if !transient {
				attemptsTotal.WithLabelValues(model.Provider, "terminal").Inc()
				logger.Debug("terminal error, advancing chain",
					zap.String("model", model.Name), zap.Error(err))
				break
			}
			attemptsTotal.WithLabelValues(model.Provider, "transient").Inc()
			if attempt == maxAttempts {
				logger.Debug("retries exhausted, advancing chain",
					zap.String("model", model.Name), zap.Error(err))
				break
			}
			if err := sleepWithContext(ctx, computeBackoff(baseBackoff, maxBackoff, attempt-1)); err != nil {
				return nil, err
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no configured model available")
	}
	chainExhaustedTotal.Inc()
	return nil, &ChainExhaustedError{
		Category:  chain.Category,
		Tier:      chain.Tier,
		Attempted: attempted,
		Err:       lastErr,
	}
}

func computeBackoff(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= max {
			return max
		}
	}
	if backoff > max {
		return max
	}
	return backoff
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
