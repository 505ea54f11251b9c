package router

import (
	"fmt"
)

// TaskCategory identifies the kind of work a fallback chain serves.
type TaskCategory string

// Task categories recognized by the resolver.
const (
	CategoryAnalysis  TaskCategory = "analysis"
	CategoryCreation  TaskCategory = "creation"
	CategoryReview    TaskCategory = "review"
	CategoryReasoning TaskCategory = "reasoning"
)

// QualityTier selects the cost/quality tradeoff for a chain.
type QualityTier string

// Quality tiers recognized by the resolver.
const (
	TierFast     QualityTier = "fast"
	TierBalanced QualityTier = "balanced"
	TierHigh     QualityTier = "high"
)

// CostTier ranks a model's relative expense.
type CostTier string

const (
	CostLow    CostTier = "low"
	CostMedium CostTier = "medium"
	CostHigh   CostTier = "high"
)

// ModelSpec describes a configured model endpoint. Specs are loaded once at
// process start and shared read-only.
type ModelSpec struct {
	Name         string
	Provider     string
	CostTier     CostTier
	ContextLimit int
}

// FallbackChain is an ordered sequence of models tried in sequence for a
// (category, tier) pair.
type FallbackChain struct {
	Category TaskCategory
	Tier     QualityTier
	Models   []ModelSpec
}

// Resolver maps (category, tier) pairs to validated fallback chains.
// Malformed chains are rejected at construction, never at call time.
type Resolver struct {
	chains map[string]FallbackChain
}

// NewResolver builds a resolver from declared models and chain definitions.
// It rejects empty chains, chains referencing undeclared models, and chains
// in which the same model appears twice.
func NewResolver(models []ModelSpec, chains map[TaskCategory]map[QualityTier][]string) (*Resolver, error) {
	byName := make(map[string]ModelSpec, len(models))
	for _, m := range models {
		if m.Name == "" {
			return nil, fmt.Errorf("model spec with empty name")
		}
		if m.Provider == "" {
			return nil, fmt.Errorf("model %s: provider is required", m.Name)
		}
		if _, dup := byName[m.Name]; dup {
			return nil, fmt.Errorf("duplicate model spec %s", m.Name)
		}
		byName[m.Name] = m
	}

	r := &Resolver{chains: make(map[string]FallbackChain)}
	for category, tiers := range chains {
		for tier, names := range tiers {
			if len(names) == 0 {
				return nil, fmt.Errorf("chain %s/%s is empty", category, tier)
			}
			seen := make(map[string]bool, len(names))
			chain := FallbackChain{Category: category, Tier: tier, Models: make([]ModelSpec, 0, len(names))}
			for _, name := range names {
				spec, ok := byName[name]
				if !ok {
					return nil, fmt.Errorf("chain %s/%s references undeclared model %s", category, tier, name)
				}
				if seen[name] {
					return nil, fmt.Errorf("chain %s/%s contains model %s twice", category, tier, name)
				}
				seen[name] = true
				chain.Models = append(chain.Models, spec)
			}
			r.chains[chainKey(category, tier)] = chain
		}
	}
	return r, nil
}

// Resolve returns the fallback chain for the given category and tier.
func (r *Resolver) Resolve(category TaskCategory, tier QualityTier) (FallbackChain, error) {
	chain, ok := r.chains[chainKey(category, tier)]
	if !ok {
		return FallbackChain{}, fmt.Errorf("no chain configured for %s/%s", category, tier)
	}
	return chain, nil
}

// Chains returns all configured chains, for diagnostics.
func (r *Resolver) Chains() []FallbackChain {
	out := make([]FallbackChain, 0, len(r.chains))
	for _, chain := range r.chains {
		out = append(out, chain)
	}
	return out
}

func chainKey(category TaskCategory, tier QualityTier) string {
	return string(category) + "/" + string(tier)
}
