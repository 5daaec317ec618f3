// Package spoonacular 透過 Mashape 存取 Spoonacular 食譜 API。
// 搜尋回應帶有 missedIngredientCount，可在取得完整食譜前先過濾。
package spoonacular

import (
	"fmt"
	"net/url"
	"strings"

	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"
)

// Name 供應商名稱，同時作為快取命名空間
const Name = "spoonacular"

const (
	defaultResultLimit = 10
	// ranking=2 代表優先缺少最少食材
	rankingMinimizeMissing = 2
)

// Adapter Spoonacular 轉接器
type Adapter struct {
	baseURL  string
	apiKey   string
	limit    int
	settings provider.Settings
}

// New 建立轉接器
func New(cfg config.ProviderConfig, settings provider.Settings) *Adapter {
	limit := cfg.ResultLimit
	if limit <= 0 {
		limit = defaultResultLimit
	}
	return &Adapter{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		limit:    limit,
		settings: settings,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"X-Mashape-Key": a.apiKey,
		"Accept":        "application/json",
	}
}

func (a *Adapter) BuildSearchRequest(opts provider.SearchOptions) provider.Request {
	u := fmt.Sprintf("%s/recipes/findByIngredients?fillIngredients=false&ingredients=%s&limitLicense=false&number=%d&ranking=%d",
		a.baseURL, url.QueryEscape(opts.Ingredients), a.limit, rankingMinimizeMissing)
	return provider.Request{URL: u, Headers: a.headers()}
}

func (a *Adapter) BuildGetRequest(recipeID string) provider.Request {
	u := fmt.Sprintf("%s/recipes/%s/information", a.baseURL, url.PathEscape(recipeID))
	return provider.Request{URL: u, Headers: a.headers()}
}

type searchItem struct {
	ID                    provider.ID `json:"id"`
	Title                 string      `json:"title"`
	UsedIngredientCount   int         `json:"usedIngredientCount"`
	MissedIngredientCount int         `json:"missedIngredientCount"`
}

func (a *Adapter) ExtractCandidateIDs(raw string, opts provider.SearchOptions) ([]string, error) {
	var items []searchItem
	if err := common.ParseJSON(raw, &items); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ranked := provider.Rank(items, func(it searchItem) int { return it.MissedIngredientCount }, a.settings)

	ids := make([]string, 0, len(ranked))
	for _, it := range ranked {
		if it.ID == "" {
			continue
		}
		ids = append(ids, string(it.ID))
	}
	return ids, nil
}

type extendedIngredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type recipeResponse struct {
	Title               string               `json:"title"`
	ExtendedIngredients []extendedIngredient `json:"extendedIngredients"`
	Instructions        string               `json:"instructions"`
	Image               string               `json:"image"`
	SourceURL           string               `json:"sourceUrl"`
	Servings            int                  `json:"servings"`
	ReadyInMinutes      float64              `json:"readyInMinutes"`
	GlutenFree          *bool                `json:"glutenFree"`
	DairyFree           *bool                `json:"dairyFree"`
	CreditsText         string               `json:"creditsText"`
}

func (a *Adapter) ParseRecipe(raw string) (recipe.Recipe, error) {
	var resp recipeResponse
	if err := common.ParseJSON(raw, &resp); err != nil {
		return recipe.Recipe{}, fmt.Errorf("decode recipe: %w", err)
	}

	ingredients := make([]recipe.Ingredient, 0, len(resp.ExtendedIngredients))
	for _, ei := range resp.ExtendedIngredients {
		ing, err := recipe.NewIngredient(ei.Name, ei.Amount, ei.Unit)
		if err != nil {
			return recipe.Recipe{}, fmt.Errorf("ingredient %q: %w", ei.Name, err)
		}
		ingredients = append(ingredients, ing)
	}

	return recipe.New(recipe.Params{
		Name:              resp.Title,
		Ingredients:       ingredients,
		Method:            resp.Instructions,
		Allergens:         allergens(resp),
		ImageURL:          resp.Image,
		SourceURL:         resp.SourceURL,
		Servings:          resp.Servings,
		TimeToMakeSeconds: resp.ReadyInMinutes * 60,
		AttributionText:   resp.CreditsText,
	})
}

// allergens 只有在旗標明確為 false 時才列出
func allergens(resp recipeResponse) []string {
	var out []string
	if resp.GlutenFree != nil && !*resp.GlutenFree {
		out = append(out, "gluten")
	}
	if resp.DairyFree != nil && !*resp.DairyFree {
		out = append(out, "dairy")
	}
	return out
}
