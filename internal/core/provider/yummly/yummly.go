// Package yummly 存取 Yummly API。快取與即時回應都是「JSON 字串裡包著 JSON」，
// 解析前需要先解開一層。
package yummly

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
)

const Name = "yummly"

const defaultResultLimit = 10

// Adapter Yummly 轉接器
type Adapter struct {
	baseURL  string
	appID    string
	appKey   string
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
		appID:    cfg.AppID,
		appKey:   cfg.APIKey,
		limit:    limit,
		settings: settings,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) credentials() url.Values {
	q := url.Values{}
	q.Set("_app_id", a.appID)
	q.Set("_app_key", a.appKey)
	return q
}

func (a *Adapter) BuildSearchRequest(opts provider.SearchOptions) provider.Request {
	q := a.credentials()
	q.Set("q", opts.Ingredients)
	q.Set("requirePictures", "true")
	q.Set("maxResult", strconv.Itoa(a.limit))
	return provider.Request{URL: a.baseURL + "/api/recipes?" + q.Encode()}
}

func (a *Adapter) BuildGetRequest(recipeID string) provider.Request {
	return provider.Request{
		URL: a.baseURL + "/api/recipe/" + url.PathEscape(recipeID) + "?" + a.credentials().Encode(),
	}
}

// decode 解開雙重編碼後再解析；單層編碼也可接受
func decode(raw string, v interface{}) error {
	inner, err := common.UnwrapJSONString(raw)
	if err != nil {
		return err
	}
	return common.ParseJSON(inner, v)
}

type match struct {
	ID          string   `json:"id"`
	RecipeName  string   `json:"recipeName"`
	Ingredients []string `json:"ingredients"`
}

type searchResponse struct {
	Matches []match `json:"matches"`
}

func (a *Adapter) ExtractCandidateIDs(raw string, opts provider.SearchOptions) ([]string, error) {
	var resp searchResponse
	if err := decode(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	user := opts.UserIngredients()
	ranked := provider.Rank(resp.Matches, func(m match) int {
		return provider.MissCount(m.Ingredients, user)
	}, a.settings)

	ids := make([]string, 0, len(ranked))
	for _, m := range ranked {
		if m.ID == "" {
			continue
		}
		ids = append(ids, m.ID)
	}
	return ids, nil
}

type image struct {
	HostedLargeURL  string `json:"hostedLargeUrl"`
	HostedMediumURL string `json:"hostedMediumUrl"`
	HostedSmallURL  string `json:"hostedSmallUrl"`
}

type recipeResponse struct {
	Name            string   `json:"name"`
	IngredientLines []string `json:"ingredientLines"`
	Source          struct {
		SourceRecipeURL string `json:"sourceRecipeUrl"`
	} `json:"source"`
	Images             []image `json:"images"`
	NumberOfServings   int     `json:"numberOfServings"`
	TotalTimeInSeconds float64 `json:"totalTimeInSeconds"`
	Attribution        struct {
		HTML string `json:"html"`
		Text string `json:"text"`
	} `json:"attribution"`
}

func (a *Adapter) ParseRecipe(raw string) (recipe.Recipe, error) {
	var resp recipeResponse
	if err := decode(raw, &resp); err != nil {
		return recipe.Recipe{}, fmt.Errorf("decode recipe: %w", err)
	}

	ingredients := make([]recipe.Ingredient, 0, len(resp.IngredientLines))
	for _, line := range resp.IngredientLines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ing, err := recipe.ParseLine(line)
		if err != nil {
			return recipe.Recipe{}, fmt.Errorf("ingredient %q: %w", line, err)
		}
		ingredients = append(ingredients, ing)
	}

	text := resp.Attribution.Text
	if strings.TrimSpace(text) == "" {
		text = htmlText(resp.Attribution.HTML)
	}

	return recipe.New(recipe.Params{
		Name:              resp.Name,
		Ingredients:       ingredients,
		ImageURL:          imageURL(resp.Images),
		SourceURL:         resp.Source.SourceRecipeURL,
		Servings:          resp.NumberOfServings,
		TimeToMakeSeconds: resp.TotalTimeInSeconds,
		AttributionText:   text,
		AttributionHTML:   resp.Attribution.HTML,
	})
}

func imageURL(images []image) string {
	for _, img := range images {
		for _, u := range []string{img.HostedLargeURL, img.HostedMediumURL, img.HostedSmallURL} {
			if u != "" {
				return u
			}
		}
	}
	return ""
}

// htmlText 取出 HTML 的純文字並壓縮空白
func htmlText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
