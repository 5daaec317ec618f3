// Package ranking 依使用者選擇的條件排序食譜
package ranking

import (
	"sort"
	"strings"

	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/pkg/common"
)

// Criterion 排序條件
type Criterion string

const (
	Relevance Criterion = "RELEVANCE"
	TimeTaken Criterion = "TIME_TAKEN"
	Servings  Criterion = "SERVINGS"
)

// Direction 排序方向
type Direction string

const (
	Ascending  Direction = "ASCENDING"
	Descending Direction = "DESCENDING"
)

var criterionAliases = map[string]Criterion{
	"relevance":       Relevance,
	"by relevance":    Relevance,
	"time_taken":      TimeTaken,
	"time":            TimeTaken,
	"by time":         TimeTaken,
	"servings":        Servings,
	"by no. servings": Servings,
}

var directionAliases = map[string]Direction{
	"ascending":  Ascending,
	"asc":        Ascending,
	"descending": Descending,
	"desc":       Descending,
}

// ParseCriterion 解析排序條件，不分大小寫，接受介面上的顯示文字
func ParseCriterion(s string) (Criterion, error) {
	if c, ok := criterionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", common.InvalidArgumentf("unknown sort criterion %q", s)
}

// ParseDirection 解析排序方向
func ParseDirection(s string) (Direction, error) {
	if d, ok := directionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", common.InvalidArgumentf("unknown sort direction %q", s)
}

// Sort 回傳排序後的新切片，不修改輸入
func Sort(recipes []recipe.Recipe, userIngredients []recipe.Ingredient, c Criterion, d Direction) ([]recipe.Recipe, error) {
	var cmp func(a, b recipe.Recipe) int
	switch c {
	case Relevance:
		cmp = relevanceComparator(userIngredients)
	case TimeTaken:
		cmp = func(a, b recipe.Recipe) int { return compareKnown(a.TimeToMakeSeconds(), b.TimeToMakeSeconds()) }
	case Servings:
		cmp = func(a, b recipe.Recipe) int { return compareKnown(a.Servings(), b.Servings()) }
	default:
		return nil, common.InvalidArgumentf("unknown sort criterion %q", c)
	}

	sign := 1
	switch d {
	case Ascending:
	case Descending:
		sign = -1
	default:
		return nil, common.InvalidArgumentf("unknown sort direction %q", d)
	}

	out := make([]recipe.Recipe, len(recipes))
	copy(out, recipes)
	sort.SliceStable(out, func(i, j int) bool {
		return sign*cmp(out[i], out[j]) < 0
	})
	return out, nil
}

// relevanceComparator 缺少較多的排前面；DESCENDING 反轉後最相關的在前
func relevanceComparator(owned []recipe.Ingredient) func(a, b recipe.Recipe) int {
	return func(a, b recipe.Recipe) int {
		ma, mb := a.MissCount(owned), b.MissCount(owned)
		switch {
		case ma > mb:
			return -1
		case ma < mb:
			return 1
		default:
			return 0
		}
	}
}

// compareKnown 0 代表未知，一律排在已知值之後（反轉前）
func compareKnown(a, b int) int {
	switch {
	case a == 0 && b == 0:
		return 0
	case a == 0:
		return 1
	case b == 0:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
