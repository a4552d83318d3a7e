// Package config loads and validates engine configuration from YAML, with
// sensible defaults for every knob so an empty file is a valid config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mealdex/mealdex/core/food"
	"github.com/mealdex/mealdex/core/search/rank"
)

// Config is the root configuration for the search aggregation engine.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SearchConfig holds the aggregation pipeline knobs.
type SearchConfig struct {
	// Mode is "parallel" or "fallback".
	Mode string `yaml:"mode"`

	// Budget is the total wall-clock budget per aggregation.
	Budget time.Duration `yaml:"budget"`

	// CacheTTL bounds the staleness window of cached results.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxSize bounds the number of cached queries.
	CacheMaxSize int `yaml:"cache_max_size"`

	// DebounceWindow is the quiet window for interactive queries.
	DebounceWindow time.Duration `yaml:"debounce_window"`

	// MaxResults truncates the ranked result list.
	MaxResults int `yaml:"max_results"`

	// NameThreshold and NutrientThreshold tune the fuzzy duplicate match.
	NameThreshold     float64 `yaml:"name_threshold"`
	NutrientThreshold float64 `yaml:"nutrient_threshold"`

	// SourceRank orders sources by preference for representative election.
	SourceRank []string `yaml:"source_rank"`

	// PreferredSource receives the high-confidence ranking boost.
	PreferredSource string `yaml:"preferred_source"`

	// PreferenceTerms are dietary-preference token categories for ranking
	// boosts.
	PreferenceTerms []rank.TermCategory `yaml:"preference_terms"`
}

// ProviderConfig configures one upstream provider.
type ProviderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ProvidersConfig configures the upstream adapters in priority order:
// fooddata is the authoritative structured database, openfoods the
// community backstop.
type ProvidersConfig struct {
	FoodData  ProviderConfig `yaml:"fooddata"`
	OpenFoods ProviderConfig `yaml:"openfoods"`
}

// LoggingConfig controls the zap logger construction.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	rankDefaults := rank.DefaultConfig()
	return Config{
		Search: SearchConfig{
			Mode:              "parallel",
			Budget:            800 * time.Millisecond,
			CacheTTL:          5 * time.Minute,
			CacheMaxSize:      500,
			DebounceWindow:    300 * time.Millisecond,
			MaxResults:        rankDefaults.MaxResults,
			NameThreshold:     0.85,
			NutrientThreshold: 0.90,
			SourceRank:        []string{string(food.SourceFoodData), string(food.SourceOpenFoods)},
			PreferredSource:   string(rankDefaults.PreferredSource),
			PreferenceTerms:   rankDefaults.PreferenceTerms,
		},
		Providers: ProvidersConfig{
			FoodData: ProviderConfig{
				Enabled:  true,
				BaseURL:  "https://api.nal.usda.gov/fdc/v1",
				PageSize: 25,
			},
			OpenFoods: ProviderConfig{
				Enabled:  true,
				BaseURL:  "https://world.openfoodfacts.org",
				PageSize: 25,
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Search.Mode != "parallel" && c.Search.Mode != "fallback" {
		return fmt.Errorf("search.mode must be parallel or fallback, got %q", c.Search.Mode)
	}
	if c.Search.Budget <= 0 {
		return fmt.Errorf("search.budget must be positive")
	}
	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("search.cache_ttl must be positive")
	}
	if c.Search.NameThreshold <= 0 || c.Search.NameThreshold > 1 {
		return fmt.Errorf("search.name_threshold must be in (0, 1]")
	}
	if c.Search.NutrientThreshold <= 0 || c.Search.NutrientThreshold > 1 {
		return fmt.Errorf("search.nutrient_threshold must be in (0, 1]")
	}
	for _, s := range c.Search.SourceRank {
		if !food.Source(s).IsValid() {
			return fmt.Errorf("search.source_rank contains unknown source %q", s)
		}
	}
	if !c.Providers.FoodData.Enabled && !c.Providers.OpenFoods.Enabled {
		return fmt.Errorf("at least one provider must be enabled")
	}
	return nil
}

// SourceRankSources returns the configured preference order as typed sources.
func (c Config) SourceRankSources() []food.Source {
	sources := make([]food.Source, 0, len(c.Search.SourceRank))
	for _, s := range c.Search.SourceRank {
		sources = append(sources, food.Source(s))
	}
	return sources
}
