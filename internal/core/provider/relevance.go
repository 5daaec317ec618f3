package provider

import (
	"sort"
	"strings"

	"recipe-aggregator/internal/core/recipe"
)

// Rank 依缺少食材數遞增排序（穩定排序），前 MinimumUnfiltered 筆一律保留，
// 其後只保留 IsRelevant 的項目。不修改輸入。
func Rank[T any](candidates []T, missed func(T) int, s Settings) []T {
	sorted := make([]T, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return missed(sorted[i]) < missed(sorted[j])
	})

	out := make([]T, 0, len(sorted))
	for i, c := range sorted {
		if i < s.MinimumUnfiltered || s.IsRelevant(missed(c)) {
			out = append(out, c)
		}
	}
	return out
}

// MissCount 計算候選食材中缺少的數量：候選名稱的任一單字等於某個完整的使用者食材才算擁有。
// 使用者食材不拆字，"brown sugar" 不會對上 "sugar"。
func MissCount(names []string, userIngredients []string) int {
	owned := make(map[string]bool, len(userIngredients))
	for _, u := range userIngredients {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			owned[u] = true
		}
	}

	missed := 0
	for _, name := range names {
		matched := false
		for _, t := range tokens(name) {
			if owned[t] {
				matched = true
				break
			}
		}
		if !matched {
			missed++
		}
	}
	return missed
}

func tokens(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ",")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// OwnedIngredients 將使用者食材轉為 Ingredient，供排序時的 Recipe.MissCount 使用；
// 無效名稱直接略過
func OwnedIngredients(names []string) []recipe.Ingredient {
	out := make([]recipe.Ingredient, 0, len(names))
	for _, n := range names {
		ing, err := recipe.NewIngredient(n, 0, "")
		if err != nil {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// FilterByOwned 以完整食譜的食材名稱計算缺少數後套用 Rank
func FilterByOwned(recipes []recipe.Recipe, userIngredients []string, s Settings) []recipe.Recipe {
	return Rank(recipes, func(r recipe.Recipe) int {
		ings := r.Ingredients()
		names := make([]string, len(ings))
		for i, ing := range ings {
			names[i] = ing.Name()
		}
		return MissCount(names, userIngredients)
	}, s)
}
