// Package cmd provides the Mealdex CLI: one-shot food searches against the
// configured upstream providers.
package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mealdex/mealdex/core/config"
	"github.com/mealdex/mealdex/core/events"
	"github.com/mealdex/mealdex/core/food"
	"github.com/mealdex/mealdex/core/search/engine"
	"github.com/mealdex/mealdex/core/search/orchestrator"
	"github.com/mealdex/mealdex/core/search/rank"
	"github.com/mealdex/mealdex/core/search/similarity"
	"github.com/mealdex/mealdex/core/upstream"
	"github.com/mealdex/mealdex/core/upstream/fooddata"
	"github.com/mealdex/mealdex/core/upstream/openfoods"
)

var (
	searchBudget  time.Duration
	searchLimit   int
	searchAsJSON  bool
	searchVerbose bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search food providers and print ranked, deduplicated results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().DurationVar(&searchBudget, "budget", 0, "total latency budget (default from config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default from config)")
	searchCmd.Flags().BoolVar(&searchAsJSON, "json", false, "emit results as JSON")
	searchCmd.Flags().BoolVar(&searchVerbose, "verbose", false, "log adapter activity")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if searchLimit > 0 {
		cfg.Search.MaxResults = searchLimit
	}

	logger, err := buildLogger(cfg.Logging, searchVerbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	query := strings.Join(args, " ")
	results, err := eng.SearchWithBudget(cmd.Context(), query, searchBudget)
	if err != nil {
		return err
	}

	if searchAsJSON {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	printResults(cmd, query, results)
	return nil
}

// buildEngine wires the configured adapters into an engine instance.
func buildEngine(cfg config.Config, logger *zap.Logger) (*engine.Engine, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var adapters []upstream.Adapter
	if cfg.Providers.FoodData.Enabled {
		adapters = append(adapters, fooddata.New(fooddata.Config{
			BaseURL:  cfg.Providers.FoodData.BaseURL,
			APIKey:   cfg.Providers.FoodData.APIKey,
			PageSize: cfg.Providers.FoodData.PageSize,
			Timeout:  cfg.Providers.FoodData.Timeout,
		}, httpClient))
	}
	if cfg.Providers.OpenFoods.Enabled {
		adapters = append(adapters, openfoods.New(openfoods.Config{
			BaseURL:  cfg.Providers.OpenFoods.BaseURL,
			PageSize: cfg.Providers.OpenFoods.PageSize,
			Timeout:  cfg.Providers.OpenFoods.Timeout,
		}, httpClient))
	}

	engineCfg := engine.Config{
		Mode:           orchestrator.Mode(cfg.Search.Mode),
		Budget:         cfg.Search.Budget,
		CacheTTL:       cfg.Search.CacheTTL,
		CacheMaxSize:   cfg.Search.CacheMaxSize,
		DebounceWindow: cfg.Search.DebounceWindow,
		Matcher: similarity.Config{
			NameThreshold:     cfg.Search.NameThreshold,
			NutrientThreshold: cfg.Search.NutrientThreshold,
		},
		Rank: rank.Config{
			PreferredSource: food.Source(cfg.Search.PreferredSource),
			PreferenceTerms: cfg.Search.PreferenceTerms,
			MaxResults:      cfg.Search.MaxResults,
		},
		SourceRank: cfg.SourceRankSources(),
	}

	return engine.New(adapters, engineCfg, logger, events.NewLogSink(logger))
}

// buildLogger constructs the zap logger from config.
func buildLogger(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zap.InfoLevel
	}
	if verbose {
		level = zap.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func printResults(cmd *cobra.Command, query string, results []food.RankedResult) {
	if len(results) == 0 {
		cmd.Printf("no results for %q\n", query)
		return
	}
	for i, r := range results {
		degraded := ""
		if r.Degraded {
			degraded = " (cached, similar query)"
		}
		cmd.Printf("%2d. [%.2f] %s  (%s)%s\n", i+1, r.Confidence, r.Name, r.Source, degraded)
		if cal := r.Nutrients.Calories; cal.Known {
			cmd.Printf("      %.0f kcal | P %.1fg | C %.1fg | F %.1fg per %.0f %s\n",
				cal.Amount,
				r.Nutrients.Protein.Or(0),
				r.Nutrients.Carbs.Or(0),
				r.Nutrients.Fat.Or(0),
				r.Serving.Amount, r.Serving.Unit)
		}
	}
}
