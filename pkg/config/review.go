package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/draftgate/pkg/decision"
	"github.com/zen-systems/draftgate/pkg/executor"
	"github.com/zen-systems/draftgate/pkg/review"
	"github.com/zen-systems/draftgate/pkg/router"
)

// ReviewConfig holds the review pipeline configuration.
type ReviewConfig struct {
	Models     []ModelConfig                  `yaml:"models"`
	Chains     map[string]map[string][]string `yaml:"chains"`
	Dimensions []string                       `yaml:"dimensions,omitempty"`
	Policy     PolicyConfig                   `yaml:"policy,omitempty"`
	Cache      CacheConfig                    `yaml:"cache,omitempty"`
	Executor   ExecutorConfig                 `yaml:"executor,omitempty"`
	Retry      RetryConfig                    `yaml:"retry,omitempty"`
}

// ModelConfig declares one model in the catalog.
type ModelConfig struct {
	Name         string `yaml:"name"`
	Provider     string `yaml:"provider"`
	CostTier     string `yaml:"cost_tier,omitempty"`
	ContextLimit int    `yaml:"context_limit,omitempty"`
}

// PolicyConfig holds decision weights and thresholds.
type PolicyConfig struct {
	Weights             map[string]float64 `yaml:"weights,omitempty"`
	ApproveThreshold    float64            `yaml:"approve_threshold,omitempty"`
	AskUserThreshold    float64            `yaml:"ask_user_threshold,omitempty"`
	ComplianceDimension string             `yaml:"compliance_dimension,omitempty"`
	ComplianceFloor     float64            `yaml:"compliance_floor,omitempty"`
}

// CacheConfig controls the two-tier result cache.
type CacheConfig struct {
	Enabled    *bool  `yaml:"enabled,omitempty"`
	MaxEntries int    `yaml:"max_entries,omitempty"`
	TTLMinutes int    `yaml:"ttl_minutes,omitempty"`
	DiskPath   string `yaml:"disk_path,omitempty"`
}

// ExecutorConfig bounds the parallel dimension dispatch.
type ExecutorConfig struct {
	MaxWorkers            int `yaml:"max_workers,omitempty"`
	PerTaskTimeoutSeconds int `yaml:"per_task_timeout_seconds,omitempty"`
}

// RetryConfig defines per-hop retry and backoff behavior.
type RetryConfig struct {
	MaxAttemptsPerHop int `yaml:"max_attempts_per_hop,omitempty"`
	BaseBackoffMs     int `yaml:"base_backoff_ms,omitempty"`
	MaxBackoffMs      int `yaml:"max_backoff_ms,omitempty"`
}

// LoadReviewConfig reads review configuration from a YAML file.
func LoadReviewConfig(path string) (*ReviewConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ReviewConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyReviewDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultReviewConfig returns the built-in review configuration.
func DefaultReviewConfig() *ReviewConfig {
	cfg := &ReviewConfig{
		Models: []ModelConfig{
			{Name: "claude-sonnet-4-20250514", Provider: "anthropic", CostTier: "medium", ContextLimit: 200000},
			{Name: "claude-opus-4-20250514", Provider: "anthropic", CostTier: "high", ContextLimit: 200000},
			{Name: "gpt-5.2-instant", Provider: "openai", CostTier: "low", ContextLimit: 128000},
			{Name: "gpt-5.2-thinking", Provider: "openai", CostTier: "medium", ContextLimit: 128000},
			{Name: "gpt-5.2-pro", Provider: "openai", CostTier: "high", ContextLimit: 128000},
			{Name: "gemini-2.0-flash", Provider: "google", CostTier: "low", ContextLimit: 1000000},
			{Name: "gemini-2.0-pro", Provider: "google", CostTier: "medium", ContextLimit: 1000000},
			{Name: "deepseek-chat", Provider: "deepseek", CostTier: "low", ContextLimit: 64000},
			{Name: "deepseek-reasoner", Provider: "deepseek", CostTier: "medium", ContextLimit: 64000},
		},
		Chains: map[string]map[string][]string{
			"review": {
				"fast":     {"gemini-2.0-flash", "deepseek-chat", "gpt-5.2-instant"},
				"balanced": {"claude-sonnet-4-20250514", "gpt-5.2-thinking", "gemini-2.0-pro"},
				"high":     {"claude-opus-4-20250514", "gpt-5.2-pro", "claude-sonnet-4-20250514"},
			},
			"analysis": {
				"fast":     {"deepseek-chat", "gemini-2.0-flash"},
				"balanced": {"gemini-2.0-pro", "claude-sonnet-4-20250514"},
				"high":     {"gpt-5.2-pro", "claude-opus-4-20250514"},
			},
			"creation": {
				"fast":     {"gpt-5.2-instant", "gemini-2.0-flash"},
				"balanced": {"claude-sonnet-4-20250514", "gpt-5.2-thinking"},
				"high":     {"claude-opus-4-20250514", "gpt-5.2-pro"},
			},
			"reasoning": {
				"fast":     {"deepseek-reasoner", "gpt-5.2-instant"},
				"balanced": {"deepseek-reasoner", "gpt-5.2-thinking"},
				"high":     {"gpt-5.2-pro", "claude-opus-4-20250514"},
			},
		},
	}
	applyReviewDefaults(cfg)
	return cfg
}

func applyReviewDefaults(cfg *ReviewConfig) {
	if len(cfg.Dimensions) == 0 {
		cfg.Dimensions = []string{review.DimensionQuality, review.DimensionCompliance, review.DimensionEngagement}
	}
	if len(cfg.Policy.Weights) == 0 {
		cfg.Policy.Weights = map[string]float64{
			review.DimensionEngagement: 0.4,
			review.DimensionQuality:    0.35,
			review.DimensionCompliance: 0.25,
		}
	}
	if cfg.Policy.ApproveThreshold == 0 {
		cfg.Policy.ApproveThreshold = 8.0
	}
	if cfg.Policy.AskUserThreshold == 0 {
		cfg.Policy.AskUserThreshold = 6.0
	}
	if cfg.Policy.ComplianceDimension == "" {
		cfg.Policy.ComplianceDimension = review.DimensionCompliance
	}
	if cfg.Policy.ComplianceFloor == 0 {
		cfg.Policy.ComplianceFloor = 7.0
	}
	if cfg.Cache.Enabled == nil {
		enabled := true
		cfg.Cache.Enabled = &enabled
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 512
	}
	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 24 * 60
	}
	if cfg.Executor.MaxWorkers == 0 {
		cfg.Executor.MaxWorkers = executor.DefaultWorkerCeiling
	}
	if cfg.Retry.MaxAttemptsPerHop == 0 {
		cfg.Retry.MaxAttemptsPerHop = 3
	}
	if cfg.Retry.BaseBackoffMs == 0 {
		cfg.Retry.BaseBackoffMs = 200
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = 2000
	}
}

var knownTiers = map[string]router.QualityTier{
	"fast":     router.TierFast,
	"balanced": router.TierBalanced,
	"high":     router.TierHigh,
}

var knownCategories = map[string]router.TaskCategory{
	"analysis":  router.CategoryAnalysis,
	"creation":  router.CategoryCreation,
	"review":    router.CategoryReview,
	"reasoning": router.CategoryReasoning,
}

var knownCostTiers = map[string]router.CostTier{
	"":       router.CostMedium,
	"low":    router.CostLow,
	"medium": router.CostMedium,
	"high":   router.CostHigh,
}

// Validate checks the configuration without building the runtime objects.
func (c *ReviewConfig) Validate() error {
	if _, err := c.Resolver(); err != nil {
		return err
	}
	if err := c.DecisionPolicy().Validate(); err != nil {
		return err
	}
	for _, dim := range c.Dimensions {
		if dim == "" {
			return fmt.Errorf("empty dimension name")
		}
	}
	return nil
}

// Resolver builds the fallback chain resolver from the declared catalog.
func (c *ReviewConfig) Resolver() (*router.Resolver, error) {
	models := make([]router.ModelSpec, 0, len(c.Models))
	for _, m := range c.Models {
		cost, ok := knownCostTiers[m.CostTier]
		if !ok {
			return nil, fmt.Errorf("model %s: unknown cost tier %q", m.Name, m.CostTier)
		}
		models = append(models, router.ModelSpec{
			Name:         m.Name,
			Provider:     m.Provider,
			CostTier:     cost,
			ContextLimit: m.ContextLimit,
		})
	}

	chains := make(map[router.TaskCategory]map[router.QualityTier][]string, len(c.Chains))
	for cat, tiers := range c.Chains {
		category, ok := knownCategories[cat]
		if !ok {
			return nil, fmt.Errorf("unknown task category %q", cat)
		}
		chains[category] = make(map[router.QualityTier][]string, len(tiers))
		for tier, chain := range tiers {
			qt, ok := knownTiers[tier]
			if !ok {
				return nil, fmt.Errorf("category %s: unknown quality tier %q", cat, tier)
			}
			chains[category][qt] = chain
		}
	}

	return router.NewResolver(models, chains)
}

// DecisionPolicy converts the policy section for the decision engine.
func (c *ReviewConfig) DecisionPolicy() decision.Policy {
	return decision.Policy{
		Weights:             c.Policy.Weights,
		ApproveThreshold:    c.Policy.ApproveThreshold,
		AskUserThreshold:    c.Policy.AskUserThreshold,
		ComplianceDimension: c.Policy.ComplianceDimension,
		ComplianceFloor:     c.Policy.ComplianceFloor,
	}
}

// CallOptions converts the retry section for the model router.
func (c *ReviewConfig) CallOptions() router.CallOptions {
	return router.CallOptions{
		MaxAttemptsPerHop: c.Retry.MaxAttemptsPerHop,
		BaseBackoff:       time.Duration(c.Retry.BaseBackoffMs) * time.Millisecond,
		MaxBackoff:        time.Duration(c.Retry.MaxBackoffMs) * time.Millisecond,
	}
}

// ExecutorOptions converts the executor section for parallel dispatch.
func (c *ReviewConfig) ExecutorOptions() executor.Options {
	return executor.Options{
		MaxWorkers:     c.Executor.MaxWorkers,
		PerTaskTimeout: time.Duration(c.Executor.PerTaskTimeoutSeconds) * time.Second,
	}
}

// CacheTTL returns the configured result TTL.
func (c *ReviewConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// CacheEnabled reports whether result caching is on.
func (c *ReviewConfig) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}
