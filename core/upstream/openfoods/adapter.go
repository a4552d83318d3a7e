// Package openfoods adapts a community food/product catalog (broad coverage,
// sparse community-entered nutrition data) to the upstream adapter contract.
package openfoods

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
const ProviderName = "openfoods"

const defaultPageSize = 25

// Community-entered data earns lower base confidence than the structured
// database; completeness of the macro vector buys some of it back.
const (
	baseConfidence         = 0.6
	completenessBonus      = 0.05
	maxDerivedConfidence   = 0.85
	detailFoundStatusValue = 1
)

// Config configures the openfoods adapter.
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Adapter queries the community catalog.
type Adapter struct {
	client   *upstream.Client
	baseURL  string
	pageSize int
}

// New creates an openfoods adapter. A nil httpClient uses the default client.
func New(cfg Config, httpClient *http.Client) *Adapter {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Adapter{
		client:   upstream.NewClient(ProviderName, httpClient, cfg.Timeout),
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string { return ProviderName }

// Source returns the source tag for candidates from this provider.
func (a *Adapter) Source() food.Source { return food.SourceOpenFoods }

type searchResponse struct {
	Products []productPayload `json:"products"`
}

type detailResponse struct {
	Status  int            `json:"status"`
	Product productPayload `json:"product"`
}

type productPayload struct {
	Code            string     `json:"code"`
	ProductName     string     `json:"product_name"`
	IngredientsText string     `json:"ingredients_text"`
	ServingQuantity float64    `json:"serving_quantity"`
	ServingUnit     string     `json:"serving_quantity_unit"`
	Nutriments      nutriments `json:"nutriments"`
}

// nutriments carries per-100g values; absent keys decode to nil pointers so
// unknown never collapses into zero.
type nutriments struct {
	EnergyKcal *float64 `json:"energy-kcal_100g"`
	Proteins   *float64 `json:"proteins_100g"`
	Carbs      *float64 `json:"carbohydrates_100g"`
	Fat        *float64 `json:"fat_100g"`
	Fiber      *float64 `json:"fiber_100g"`
	Sugars     *float64 `json:"sugars_100g"`
	SodiumG    *float64 `json:"sodium_100g"`
}

// Search queries the catalog and normalizes every product. A product missing
// its code or name makes the whole response malformed.
func (a *Adapter) Search(ctx context.Context, query string) ([]food.Candidate, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(a.pageSize))

	var resp searchResponse
	if err := a.client.GetJSON(ctx, "search", a.baseURL+"/cgi/search.pl", params, &resp); err != nil {
		return nil, err
	}

	candidates := make([]food.Candidate, 0, len(resp.Products))
	for _, p := range resp.Products {
		candidate, err := normalize(p)
		if err != nil {
			return nil, a.client.MalformedResponse("search", err)
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// FetchDetail hydrates one product by its code.
func (a *Adapter) FetchDetail(ctx context.Context, id string) (food.Candidate, error) {
	var resp detailResponse
	endpoint := a.baseURL + "/api/v0/product/" + url.PathEscape(id) + ".json"
	if err := a.client.GetJSON(ctx, "detail", endpoint, nil, &resp); err != nil {
		return food.Candidate{}, err
	}
	if resp.Status != detailFoundStatusValue {
		return food.Candidate{}, a.client.MalformedResponse("detail", fmt.Errorf("product %s not found", id))
	}

	candidate, err := normalize(resp.Product)
	if err != nil {
		return food.Candidate{}, a.client.MalformedResponse("detail", err)
	}
	return candidate, nil
}

// normalize converts one product payload into the common candidate schema.
func normalize(p productPayload) (food.Candidate, error) {
	if p.Code == "" {
		return food.Candidate{}, fmt.Errorf("product missing code")
	}
	if strings.TrimSpace(p.ProductName) == "" {
		return food.Candidate{}, fmt.Errorf("product %s missing name", p.Code)
	}

	nutrients := food.Nutrients{
		Calories: valueOf(p.Nutriments.EnergyKcal),
		Protein:  valueOf(p.Nutriments.Proteins),
		Carbs:    valueOf(p.Nutriments.Carbs),
		Fat:      valueOf(p.Nutriments.Fat),
		Fiber:    valueOf(p.Nutriments.Fiber),
		Sugar:    valueOf(p.Nutriments.Sugars),
		Sodium:   sodiumMg(p.Nutriments.SodiumG),
	}

	serving := food.ServingSize{Amount: p.ServingQuantity, Unit: p.ServingUnit}
	if serving.Amount == 0 {
		serving = food.ServingSize{Amount: 100, Unit: "g"}
	}

	var ingredients []string
	if p.IngredientsText != "" {
		for _, part := range strings.Split(p.IngredientsText, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				ingredients = append(ingredients, trimmed)
			}
		}
	}

	return food.Candidate{
		ID:          p.Code,
		Name:        p.ProductName,
		Source:      food.SourceOpenFoods,
		Nutrients:   nutrients,
		Serving:     serving,
		Ingredients: ingredients,
		Confidence:  confidence(nutrients),
	}, nil
}

func valueOf(v *float64) food.Value {
	if v == nil {
		return food.Unknown()
	}
	return food.KnownValue(*v)
}

// sodiumMg converts the provider's grams to the schema's milligrams.
func sodiumMg(v *float64) food.Value {
	if v == nil {
		return food.Unknown()
	}
	return food.KnownValue(*v * 1000)
}

// confidence derives a 0-1 confidence from macro completeness.
func confidence(n food.Nutrients) float64 {
	c := baseConfidence + completenessBonus*float64(n.NonzeroMacroCount())
	if c > maxDerivedConfidence {
		return maxDerivedConfidence
	}
	return c
}
