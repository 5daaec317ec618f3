// Package food2fork 存取 Food2Fork API。搜尋結果只有 id，
// 食材為自由文字，份量與時間不提供。
package food2fork

import (
	"fmt"
	"net/url"
	"strings"

	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"
)

const Name = "food2fork"

const defaultResultLimit = 10

// Adapter Food2Fork 轉接器
type Adapter struct {
	baseURL  string
	apiKey   string
	limit    int
	settings provider.Settings
}

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

func (a *Adapter) BuildSearchRequest(opts provider.SearchOptions) provider.Request {
	q := url.Values{}
	q.Set("key", a.apiKey)
	q.Set("q", opts.Ingredients)
	return provider.Request{URL: a.baseURL + "/search?" + q.Encode()}
}

func (a *Adapter) BuildGetRequest(recipeID string) provider.Request {
	q := url.Values{}
	q.Set("key", a.apiKey)
	q.Set("rId", recipeID)
	return provider.Request{URL: a.baseURL + "/get?" + q.Encode()}
}

type searchResponse struct {
	Count   int `json:"count"`
	Recipes []struct {
		RecipeID provider.ID `json:"recipe_id"`
	} `json:"recipes"`
}

// ExtractCandidateIDs 搜尋回應沒有相關度訊號，只截取前 limit 筆
func (a *Adapter) ExtractCandidateIDs(raw string, _ provider.SearchOptions) ([]string, error) {
	var resp searchResponse
	if err := common.ParseJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(resp.Recipes))
	for _, r := range resp.Recipes {
		if len(ids) == a.limit {
			break
		}
		if r.RecipeID == "" {
			continue
		}
		ids = append(ids, string(r.RecipeID))
	}
	return ids, nil
}

type recipeResponse struct {
	Recipe struct {
		Title       string   `json:"title"`
		Ingredients []string `json:"ingredients"`
		SourceURL   string   `json:"source_url"`
		ImageURL    string   `json:"image_url"`
		Publisher   string   `json:"publisher"`
	} `json:"recipe"`
}

func (a *Adapter) ParseRecipe(raw string) (recipe.Recipe, error) {
	var resp recipeResponse
	if err := common.ParseJSON(raw, &resp); err != nil {
		return recipe.Recipe{}, fmt.Errorf("decode recipe: %w", err)
	}
	r := resp.Recipe

	ingredients := make([]recipe.Ingredient, 0, len(r.Ingredients))
	for _, line := range r.Ingredients {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ing, err := recipe.ParseLine(line)
		if err != nil {
			return recipe.Recipe{}, fmt.Errorf("ingredient %q: %w", line, err)
		}
		ingredients = append(ingredients, ing)
	}

	return recipe.New(recipe.Params{
		Name:            r.Title,
		Ingredients:     ingredients,
		ImageURL:        r.ImageURL,
		SourceURL:       r.SourceURL,
		AttributionText: r.Publisher,
	})
}

// FilterRecipes 以完整食譜計算缺少數後過濾
func (a *Adapter) FilterRecipes(recipes []recipe.Recipe, opts provider.SearchOptions) []recipe.Recipe {
	return provider.FilterByOwned(recipes, opts.UserIngredients(), a.settings)
}
