// Package search 處理一次完整的食材搜尋：驗證、聚合、排序
package search

import (
	"context"
	"time"

	"recipe-aggregator/internal/core/aggregator"
	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/ranking"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultMaxIngredients 單次搜尋最多食材數
const DefaultMaxIngredients = 20

// Aggregator 搜尋所需的聚合能力
type Aggregator interface {
	SearchAllWithReport(ctx context.Context, opts provider.SearchOptions) ([]recipe.Recipe, []aggregator.ProviderReport)
}

// Request 搜尋請求；Ratio 目前僅接受不使用
type Request struct {
	Ingredients   string   `json:"ingredients" binding:"required"`
	Allergies     []string `json:"allergies"`
	Ratio         float64  `json:"ratio"`
	SortCriterion string   `json:"sortCriterion"`
	SortDirection string   `json:"sortDirection"`
}

// Result 搜尋結果
type Result struct {
	Recipes   []recipe.Recipe             `json:"recipes"`
	Providers []aggregator.ProviderReport `json:"providers"`
	Signature string                      `json:"signature"`
	Criterion ranking.Criterion           `json:"sortCriterion"`
	Direction ranking.Direction           `json:"sortDirection"`
}

// Service 搜尋服務
type Service struct {
	aggregator       Aggregator
	maxIngredients   int
	defaultCriterion ranking.Criterion
	defaultDirection ranking.Direction
}

// NewService 由設定建立搜尋服務；預設排序無效時回報錯誤
func NewService(agg Aggregator, cfg config.SearchConfig) (*Service, error) {
	s := &Service{
		aggregator:       agg,
		maxIngredients:   cfg.MaxIngredients,
		defaultCriterion: ranking.Relevance,
		defaultDirection: ranking.Descending,
	}
	if s.maxIngredients <= 0 {
		s.maxIngredients = DefaultMaxIngredients
	}
	if cfg.DefaultCriterion != "" {
		c, err := ranking.ParseCriterion(cfg.DefaultCriterion)
		if err != nil {
			return nil, err
		}
		s.defaultCriterion = c
	}
	if cfg.DefaultDirection != "" {
		d, err := ranking.ParseDirection(cfg.DefaultDirection)
		if err != nil {
			return nil, err
		}
		s.defaultDirection = d
	}
	return s, nil
}

// Search 驗證請求、正規化食材簽名、聚合後排序
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	ingredients := common.SplitIngredients(req.Ingredients)
	if len(ingredients) == 0 {
		return Result{}, common.InvalidArgumentf("ingredients are required")
	}
	signature := common.IngredientSignature(ingredients)
	if n := len(common.SplitIngredients(signature)); n > s.maxIngredients {
		return Result{}, common.InvalidArgumentf("too many ingredients: %d > %d", n, s.maxIngredients)
	}

	criterion, direction, err := s.sortOrder(req.SortCriterion, req.SortDirection)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	recipes, reports := s.aggregator.SearchAllWithReport(ctx, provider.SearchOptions{
		Ingredients: signature,
		Allergies:   req.Allergies,
		Ratio:       req.Ratio,
	})

	sorted, err := ranking.Sort(recipes, provider.OwnedIngredients(ingredients), criterion, direction)
	if err != nil {
		return Result{}, err
	}

	common.LogInfo("搜尋完成",
		zap.String("signature", signature),
		zap.Int("recipes", len(sorted)),
		zap.String("criterion", string(criterion)),
		zap.String("direction", string(direction)),
		zap.Duration("耗時", time.Since(start)),
	)

	return Result{
		Recipes:   sorted,
		Providers: reports,
		Signature: signature,
		Criterion: criterion,
		Direction: direction,
	}, nil
}

// Resort 重新排序已取得的結果
func (s *Service) Resort(recipes []recipe.Recipe, ingredients, criterion, direction string) ([]recipe.Recipe, error) {
	c, d, err := s.sortOrder(criterion, direction)
	if err != nil {
		return nil, err
	}
	return ranking.Sort(recipes, provider.OwnedIngredients(common.SplitIngredients(ingredients)), c, d)
}

func (s *Service) sortOrder(criterion, direction string) (ranking.Criterion, ranking.Direction, error) {
	c, d := s.defaultCriterion, s.defaultDirection
	if criterion != "" {
		parsed, err := ranking.ParseCriterion(criterion)
		if err != nil {
			return "", "", err
		}
		c = parsed
	}
	if direction != "" {
		parsed, err := ranking.ParseDirection(direction)
		if err != nil {
			return "", "", err
		}
		d = parsed
	}
	return c, d, nil
}
