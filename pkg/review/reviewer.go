package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zen-systems/draftgate/pkg/adapter"
	"github.com/zen-systems/draftgate/pkg/cache"
	"github.com/zen-systems/draftgate/pkg/executor"
	"github.com/zen-systems/draftgate/pkg/router"
)

// Reviewer produces dimension units of work. Each unit consults the cache by
// review fingerprint, and on a miss routes the dimension prompt through the
// review fallback chain.
type Reviewer struct {
	adapters map[string]adapter.Adapter
	resolver *router.Resolver
	store    cache.Store
	cacheTTL time.Duration
	callOpts router.CallOptions
	logger   *zap.Logger
}

// ReviewerOption configures a Reviewer.
type ReviewerOption func(*Reviewer)

// WithCache enables result caching with the given store and TTL.
func WithCache(store cache.Store, ttl time.Duration) ReviewerOption {
	return func(r *Reviewer) {
		r.store = store
		r.cacheTTL = ttl
	}
}

// WithCallOptions overrides the router retry/backoff settings.
func WithCallOptions(opts router.CallOptions) ReviewerOption {
	return func(r *Reviewer) { r.callOpts = opts }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ReviewerOption {
	return func(r *Reviewer) { r.logger = logger }
}

// NewReviewer creates a Reviewer over the given provider adapters, keyed by
// provider name, and a chain resolver.
func NewReviewer(adapters map[string]adapter.Adapter, resolver *router.Resolver, opts ...ReviewerOption) *Reviewer {
	r := &Reviewer{
		adapters: adapters,
		resolver: resolver,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Unit returns an executor task evaluating one dimension of req at the given
// quality tier.
func (r *Reviewer) Unit(dimension string, tier router.QualityTier, req Request) executor.Task[DimensionResult] {
	return executor.Task[DimensionResult]{
		Name: dimension,
		Run: func(ctx context.Context) (DimensionResult, error) {
			return r.review(ctx, dimension, tier, req)
		},
	}
}

// Units returns one task per dimension name, preserving order.
func (r *Reviewer) Units(dimensions []string, tier router.QualityTier, req Request) []executor.Task[DimensionResult] {
	tasks := make([]executor.Task[DimensionResult], 0, len(dimensions))
	for _, d := range dimensions {
		tasks = append(tasks, r.Unit(d, tier, req))
	}
	return tasks
}

func (r *Reviewer) review(ctx context.Context, dimension string, tier router.QualityTier, req Request) (DimensionResult, error) {
	key := cache.ReviewFingerprint(req.Title, req.Body, req.Topic, dimension)

	if r.store != nil {
		if data, ok := r.store.Get(key); ok {
			var cached DimensionResult
			if err := json.Unmarshal(data, &cached); err == nil {
				r.logger.Debug("review served from cache",
					zap.String("dimension", dimension), zap.String("key", key))
				return cached, nil
			}
			// Corrupt entry: drop it and fall through to a fresh call.
			_ = r.store.Invalidate(key)
		}
	}

	chain, err := r.resolver.Resolve(router.CategoryReview, tier)
	if err != nil {
		return DimensionResult{Dimension: dimension, Err: err}, err
	}

	prompt := DimensionPrompt(dimension, req)
	opts := r.callOpts
	opts.Logger = r.logger
	if opts.Available == nil {
		opts.Available = r.hasAdapter
	}

	result, err := router.Call(ctx, chain, func(ctx context.Context, m router.ModelSpec) (string, error) {
		a, ok := r.adapters[m.Provider]
		if !ok {
			return "", fmt.Errorf("no adapter for provider %s", m.Provider)
		}
		reply, err := a.Generate(ctx, m.Name, prompt)
		if err != nil {
			return "", err
		}
		return reply.Content, nil
	}, opts)
	if err != nil {
		return DimensionResult{Dimension: dimension, Err: err}, err
	}

	parsed, err := ParseDimensionResult(dimension, result.Value)
	if err != nil {
		return DimensionResult{Dimension: dimension, Err: err}, err
	}

	if r.store != nil {
		if data, err := json.Marshal(parsed); err == nil {
			_ = r.store.Set(key, data, r.cacheTTL)
		}
	}
	r.logger.Debug("review completed",
		zap.String("dimension", dimension),
		zap.String("model", result.Model),
		zap.Float64("score", parsed.Score))
	return parsed, nil
}

func (r *Reviewer) hasAdapter(m router.ModelSpec) bool {
	_, ok := r.adapters[m.Provider]
	return ok
}
