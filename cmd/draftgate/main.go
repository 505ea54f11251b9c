package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zen-systems/draftgate/pkg/adapter"
	"github.com/zen-systems/draftgate/pkg/cache"
	"github.com/zen-systems/draftgate/pkg/config"
	"github.com/zen-systems/draftgate/pkg/decision"
	"github.com/zen-systems/draftgate/pkg/history"
	"github.com/zen-systems/draftgate/pkg/logging"
	"github.com/zen-systems/draftgate/pkg/review"
	"github.com/zen-systems/draftgate/pkg/revise"
	"github.com/zen-systems/draftgate/pkg/router"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "draftgate",
		Short: "Automated social-post review with routed LLM scoring",
		Long: `Draftgate scores post drafts across quality, compliance, and engagement
	dimensions using LLM fallback chains, then decides whether to approve
	the draft, ask a human, or send it back for revision.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to review config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func reviewCmd() *cobra.Command {
	var titleFlag string
	var fileFlag string
	var topicFlag string
	var tagsFlag []string
	var tierFlag string
	var jsonFlag bool
	var noCacheFlag bool
	var noSaveFlag bool
	var revisionFlag bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a post draft and decide approve, ask_user, or revise",
		Long: `Reviews a draft across the configured dimensions in parallel. Each
	dimension is routed through its fallback chain and the weighted scores
	feed the decision engine. Compliance is a hard gate: a violation forces
	revise regardless of the other scores.

	The body is read from --file, or from stdin when --file is omitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logLevel, logFormat)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			body, err := readBody(fileFlag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(body) == "" {
				return fmt.Errorf("draft body is empty")
			}

			tier, err := parseTier(tierFlag)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}

			resolver, err := cfg.Review.Resolver()
			if err != nil {
				return err
			}

			reviewerOpts := []review.ReviewerOption{
				review.WithCallOptions(cfg.Review.CallOptions()),
				review.WithLogger(logger),
			}
			if cfg.Review.CacheEnabled() && !noCacheFlag {
				store, err := openStore(cfg, logger)
				if err != nil {
					return fmt.Errorf("failed to open cache: %w", err)
				}
				defer func() { _ = store.Close() }()
				reviewerOpts = append(reviewerOpts, review.WithCache(store, cfg.Review.CacheTTL()))
			}

			reviewer := review.NewReviewer(adapters, resolver, reviewerOpts...)

			engine, err := decision.NewEngine(cfg.Review.DecisionPolicy(),
				decision.WithExecutorOptions(cfg.Review.ExecutorOptions()),
				decision.WithLogger(logger))
			if err != nil {
				return err
			}

			req := review.Request{
				Title: titleFlag,
				Body:  body,
				Topic: topicFlag,
				Tags:  tagsFlag,
			}
			units := reviewer.Units(cfg.Review.Dimensions, tier, req)

			d, err := engine.Evaluate(context.Background(), req, units)
			if err != nil {
				return err
			}

			if !noSaveFlag {
				if store, err := history.NewStore(""); err == nil {
					if _, err := store.Save(d); err != nil {
						logger.Warn("failed to save decision", zap.Error(err))
					}
				}
			}

			if jsonFlag {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			return printDecision(d, revisionFlag)
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "draft title")
	cmd.Flags().StringVar(&fileFlag, "file", "", "file containing the draft body (default stdin)")
	cmd.Flags().StringVar(&topicFlag, "topic", "", "draft topic")
	cmd.Flags().StringSliceVar(&tagsFlag, "tag", nil, "draft tags (repeatable)")
	cmd.Flags().StringVar(&tierFlag, "tier", "balanced", "quality tier (fast, balanced, high)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the full decision as JSON")
	cmd.Flags().BoolVar(&noCacheFlag, "no-cache", false, "bypass the review result cache")
	cmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "do not record the decision in history")
	cmd.Flags().BoolVar(&revisionFlag, "revision-prompt", false, "print a revision prompt when the decision is revise")

	return cmd
}

func printDecision(d *decision.AggregateDecision, withRevision bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIMENSION\tSCORE\tNOTES")

	names := make([]string, 0, len(d.PerDimension))
	for name := range d.PerDimension {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := d.PerDimension[name]
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t-\terror: %v\n", name, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.1f\t%s\n", name, r.Score, strings.Join(r.Weaknesses, "; "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "OVERALL\t%.1f\n", d.OverallScore)
	fmt.Fprintf(w, "ACTION\t%s\n", d.Action)
	fmt.Fprintf(w, "REASON\t%s\n", d.Reason)
	if err := w.Flush(); err != nil {
		return err
	}

	if withRevision && d.Action == decision.ActionRevise {
		fmt.Println()
		fmt.Println(revise.GenerateRevisionPrompt(d))
	}
	return nil
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show configured fallback chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			resolver, err := cfg.Review.Resolver()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tTIER\tCHAIN")

			chains := resolver.Chains()
			sort.Slice(chains, func(i, j int) bool {
				if chains[i].Category != chains[j].Category {
					return chains[i].Category < chains[j].Category
				}
				return chains[i].Tier < chains[j].Tier
			})

			for _, chain := range chains {
				names := make([]string, 0, len(chain.Models))
				for _, m := range chain.Models {
					names = append(names, m.Name)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", chain.Category, chain.Tier, strings.Join(names, " -> "))
			}

			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model catalog and provider status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			byProvider := make(map[string][]string)
			for _, m := range cfg.Review.Models {
				byProvider[m.Provider] = append(byProvider[m.Provider], m.Name)
			}
			providers := make([]string, 0, len(byProvider))
			for p := range byProvider {
				providers = append(providers, p)
			}
			sort.Strings(providers)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			for _, p := range providers {
				status := "no key"
				if cfg.HasProvider(p) || p == "mock" {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p, strings.Join(byProvider[p], ", "), status)
			}
			return w.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [review.yaml]",
		Short: "Validate a review configuration file",
		Long:  "Validates the model catalog, chains, and policy without calling any model.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadReviewConfig(args[0]); err != nil {
				return err
			}
			fmt.Println("Review configuration is valid.")
			return nil
		},
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the review result cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStoreFromFlags()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats := store.Stats()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "MEMORY ENTRIES\t%d\n", stats.MemoryEntries)
			fmt.Fprintf(w, "DISK ENTRIES\t%d\n", stats.DiskEntries)
			fmt.Fprintf(w, "TTL\t%s\n", cfg.Review.CacheTTL())
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached review result",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStoreFromFlags()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("Cache cleared.")
			return nil
		},
	})

	return cmd
}

func historyCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history [decision-id]",
		Short: "List or show past review decisions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.NewStore("")
			if err != nil {
				return err
			}

			if len(args) == 1 {
				d, err := store.Load(args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}

			entries, err := store.List(limitFlag)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SAVED\tID\tTITLE\tSCORE\tACTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\n",
					e.SavedAt.Format("2006-01-02 15:04"), e.ID, e.Title, e.OverallScore, e.Action)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "max entries to list")

	return cmd
}

func openStoreFromFlags() (*cache.TwoTier, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStore(cfg, zap.NewNop())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, cfg, nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (*cache.TwoTier, error) {
	dbPath := cfg.Review.Cache.DiskPath
	if dbPath == "" {
		dir, err := cfg.CacheDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dir, "reviews.db")
	}

	disk, err := cache.OpenDisk(dbPath)
	if err != nil {
		return nil, err
	}
	return cache.NewTwoTier(cfg.Review.Cache.MaxEntries, disk, cache.WithLogger(logger))
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithReviewFile(configFile)
	}
	return config.Load()
}

func parseTier(s string) (router.QualityTier, error) {
	switch s {
	case "fast":
		return router.TierFast, nil
	case "balanced":
		return router.TierBalanced, nil
	case "high":
		return router.TierHigh, nil
	default:
		return "", fmt.Errorf("unknown quality tier %q (fast, balanced, high)", s)
	}
}

func readBody(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if cfg.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters["deepseek"] = a
	}

	adapters["mock"] = adapter.NewMockAdapter()

	return adapters, nil
}
