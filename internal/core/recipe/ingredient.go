package recipe

import (
	"math"
	"strconv"
	"strings"

	"recipe-aggregator/internal/pkg/common"

	json "github.com/goccy/go-json"
)

// Ingredient 不可變的食材值物件
type Ingredient struct {
	name   string
	volume float64
	unit   string
}

// ingredientJSON 食材的傳輸格式
type ingredientJSON struct {
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
	Unit   string  `json:"unit"`
}

// NewIngredient 建立食材；名稱轉小寫且不可為空，數量不可為負並截斷至小數點後兩位
func NewIngredient(name string, volume float64, unit string) (Ingredient, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Ingredient{}, common.InvalidArgumentf("ingredient name is empty")
	}
	if math.IsNaN(volume) || math.IsInf(volume, 0) || volume < 0 {
		return Ingredient{}, common.InvalidArgumentf("ingredient %q has invalid volume %v", name, volume)
	}
	truncated := truncateVolume(volume)
	if math.IsInf(truncated, 0) {
		return Ingredient{}, common.InvalidArgumentf("ingredient %q has volume %v out of range", name, volume)
	}
	return Ingredient{
		name:   name,
		volume: truncated,
		unit:   unit,
	}, nil
}

// truncateVolume 向下截斷到兩位小數，容忍 0.29*100 = 28.999... 這類浮點誤差
func truncateVolume(v float64) float64 {
	return math.Floor(v*100+1e-9) / 100
}

func (i Ingredient) Name() string    { return i.name }
func (i Ingredient) Volume() float64 { return i.volume }
func (i Ingredient) Unit() string    { return i.unit }

// Equals 名稱、數量、單位完全相同
func (i Ingredient) Equals(other Ingredient) bool {
	return i.name == other.name && i.volume == other.volume && i.unit == other.unit
}

// SoftEquals 兩個名稱只要共用任一個單字（去除結尾逗號）即視為相同
func (i Ingredient) SoftEquals(other Ingredient) bool {
	tokens := nameTokens(other.name)
	for t := range nameTokens(i.name) {
		if tokens[t] {
			return true
		}
	}
	return false
}

func nameTokensList(name string) []string {
	fields := strings.Fields(name)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ",")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func nameTokens(name string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range nameTokensList(name) {
		set[t] = true
	}
	return set
}

// Tokens 回傳名稱中的單字（去除結尾逗號）
func (i Ingredient) Tokens() []string {
	return nameTokensList(i.name)
}

func (i Ingredient) String() string {
	if i.unit == "" {
		return strings.TrimSpace(formatVolume(i.volume) + " " + i.name)
	}
	return formatVolume(i.volume) + " " + i.unit + " " + i.name
}

func formatVolume(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MarshalJSON 輸出 {name, volume, unit}
func (i Ingredient) MarshalJSON() ([]byte, error) {
	return json.Marshal(ingredientJSON{Name: i.name, Volume: i.volume, Unit: i.unit})
}

// UnmarshalJSON 經由 NewIngredient 驗證後還原
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var raw ingredientJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewIngredient(raw.Name, raw.Volume, raw.Unit)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
