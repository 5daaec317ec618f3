// Package provider 定義食譜供應商的共同能力，以及所有供應商共用的
// 快取優先搜尋流程。各供應商的細節放在子套件中。
package provider

import (
	"context"

	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/infrastructure/httpclient"
	"recipe-aggregator/internal/pkg/common"
)

// Request 供應商請求描述，建立時不會失敗
type Request struct {
	URL     string
	Headers map[string]string
}

// SearchOptions 搜尋參數；Ingredients 為已正規化的食材簽名
type SearchOptions struct {
	Ingredients string
	Allergies   []string
	Ratio       float64
}

// UserIngredients 將簽名拆回食材清單
func (o SearchOptions) UserIngredients() []string {
	return common.SplitIngredients(o.Ingredients)
}

// Settings 相關度過濾參數
type Settings struct {
	MinimumUnfiltered  int
	RelevanceThreshold int
}

// DefaultSettings 預設保留前 5 筆，之後只留缺少 3 項以內的
func DefaultSettings() Settings {
	return Settings{MinimumUnfiltered: 5, RelevanceThreshold: 3}
}

// SettingsFrom 由搜尋設定建立 Settings
func SettingsFrom(cfg config.SearchConfig) Settings {
	return Settings{
		MinimumUnfiltered:  cfg.MinimumUnfiltered,
		RelevanceThreshold: cfg.RelevanceThreshold,
	}
}

// IsRelevant 缺少的食材數不超過門檻
func (s Settings) IsRelevant(missed int) bool {
	return missed <= s.RelevanceThreshold
}

// Adapter 每個供應商各自實作，封裝其 URL、標頭與回應格式
type Adapter interface {
	Name() string
	BuildSearchRequest(opts SearchOptions) Request
	BuildGetRequest(recipeID string) Request
	ParseRecipe(raw string) (recipe.Recipe, error)
	// ExtractCandidateIDs 若回應帶有相關度訊號，先過濾再回傳 ID
	ExtractCandidateIDs(raw string, opts SearchOptions) ([]string, error)
}

// RecipeFilter 搜尋回應沒有相關度訊號的供應商，在取得完整食譜後過濾
type RecipeFilter interface {
	FilterRecipes(recipes []recipe.Recipe, opts SearchOptions) []recipe.Recipe
}

// Searcher 聚合器所需的最小能力
type Searcher interface {
	Name() string
	Search(ctx context.Context, opts SearchOptions) ([]recipe.Recipe, error)
}

// Fetcher 執行即時 HTTP GET
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) (*httpclient.Response, error)
}
