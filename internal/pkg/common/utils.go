package common

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// SplitIngredients 將逗號分隔的食材字串切成清單，去除空白與空項目
func SplitIngredients(ingredients string) []string {
	parts := strings.Split(ingredients, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		result = append(result, p)
	}
	return result
}

// IngredientSignature 將食材清單正規化為快取簽名：小寫、去重、字母排序、逗號連接
func IngredientSignature(ingredients []string) string {
	seen := make(map[string]bool, len(ingredients))
	normalized := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		ing = strings.ToLower(strings.TrimSpace(ing))
		if ing == "" || seen[ing] {
			continue
		}
		seen[ing] = true
		normalized = append(normalized, ing)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ",")
}
