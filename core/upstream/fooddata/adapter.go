// Package fooddata adapts a structured government-style nutrition database
// (search + detail endpoints, authoritative macro data) to the upstream
// adapter contract.
package fooddata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mealdex/mealdex/core/food"
	"github.com/mealdex/mealdex/core/upstream"
)

// ProviderName identifies this adapter in logs and events.
const ProviderName = "fooddata"

// defaultPageSize bounds one search response.
const defaultPageSize = 25

// Nutrient numbers used by the provider's schema.
const (
	nutrientCalories = "208"
	nutrientProtein  = "203"
	nutrientFat      = "204"
	nutrientCarbs    = "205"
	nutrientSugar    = "269"
	nutrientFiber    = "291"
	nutrientSodium   = "307"
)

// Config configures the fooddata adapter.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Adapter queries the structured nutrition database.
type Adapter struct {
	client   *upstream.Client
	baseURL  string
	apiKey   string
	pageSize int
}

// New creates a fooddata adapter. A nil httpClient uses the default client.
func New(cfg Config, httpClient *http.Client) *Adapter {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Adapter{
		client:   upstream.NewClient(ProviderName, httpClient, cfg.Timeout),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string { return ProviderName }

// Source returns the source tag for candidates from this provider.
func (a *Adapter) Source() food.Source { return food.SourceFoodData }

// searchResponse is the provider's search payload.
type searchResponse struct {
	Foods []foodPayload `json:"foods"`
}

type foodPayload struct {
	FdcID           int64             `json:"fdcId"`
	Description     string            `json:"description"`
	Score           float64           `json:"score"`
	ServingSize     float64           `json:"servingSize"`
	ServingSizeUnit string            `json:"servingSizeUnit"`
	Ingredients     string            `json:"ingredients"`
	FoodNutrients   []nutrientPayload `json:"foodNutrients"`
}

type nutrientPayload struct {
	NutrientNumber string  `json:"nutrientNumber"`
	Value          float64 `json:"value"`
}

// Search queries the provider and normalizes every hit. A hit missing its ID
// or description makes the whole response malformed; partial success is
// never returned.
func (a *Adapter) Search(ctx context.Context, query string) ([]food.Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(a.pageSize))
	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}

	var resp searchResponse
	if err := a.client.GetJSON(ctx, "search", a.baseURL+"/foods/search", params, &resp); err != nil {
		return nil, err
	}

	maxScore := 0.0
	for _, f := range resp.Foods {
		if f.Score > maxScore {
			maxScore = f.Score
		}
	}

	candidates := make([]food.Candidate, 0, len(resp.Foods))
	for _, f := range resp.Foods {
		candidate, err := a.normalize(f, maxScore)
		if err != nil {
			return nil, a.client.MalformedResponse("search", err)
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// FetchDetail hydrates one food record by ID.
func (a *Adapter) FetchDetail(ctx context.Context, id string) (food.Candidate, error) {
	params := url.Values{}
	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}

	var payload foodPayload
	if err := a.client.GetJSON(ctx, "detail", a.baseURL+"/food/"+url.PathEscape(id), params, &payload); err != nil {
		return food.Candidate{}, err
	}

	candidate, err := a.normalize(payload, 0)
	if err != nil {
		return food.Candidate{}, a.client.MalformedResponse("detail", err)
	}
	return candidate, nil
}

// normalize converts one provider payload into the common candidate schema.
func (a *Adapter) normalize(f foodPayload, maxScore float64) (food.Candidate, error) {
	if f.FdcID == 0 {
		return food.Candidate{}, fmt.Errorf("food entry missing fdcId")
	}
	if f.Description == "" {
		return food.Candidate{}, fmt.Errorf("food %d missing description", f.FdcID)
	}

	nutrients := food.Nutrients{}
	for _, n := range f.FoodNutrients {
		value := food.KnownValue(n.Value)
		switch n.NutrientNumber {
		case nutrientCalories:
			nutrients.Calories = value
		case nutrientProtein:
			nutrients.Protein = value
		case nutrientCarbs:
			nutrients.Carbs = value
		case nutrientFat:
			nutrients.Fat = value
		case nutrientFiber:
			nutrients.Fiber = value
		case nutrientSugar:
			nutrients.Sugar = value
		case nutrientSodium:
			nutrients.Sodium = value
		}
	}

	var ingredients []string
	if f.Ingredients != "" {
		ingredients = splitIngredients(f.Ingredients)
	}

	return food.Candidate{
		ID:          strconv.FormatInt(f.FdcID, 10),
		Name:        f.Description,
		Source:      food.SourceFoodData,
		Nutrients:   nutrients,
		Serving:     food.ServingSize{Amount: f.ServingSize, Unit: f.ServingSizeUnit},
		Ingredients: ingredients,
		Confidence:  confidence(f.Score, maxScore),
	}, nil
}

// confidence derives a 0-1 confidence from the provider's relevance score,
// normalized against the page's best hit. Unscored records (detail fetches)
// sit at a trusted-but-unranked default.
func confidence(score, maxScore float64) float64 {
	if score <= 0 || maxScore <= 0 {
		return 0.7
	}
	c := 0.95 * score / maxScore
	if c < 0.3 {
		return 0.3
	}
	return c
}

// splitIngredients breaks the provider's semicolon/comma-joined ingredient
// string into an ordered list.
func splitIngredients(raw string) []string {
	sep := ","
	for _, r := range raw {
		if r == ';' {
			sep = ";"
			break
		}
	}
	pieces := strings.Split(raw, sep)
	parts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
