package recipe

import (
	"math"
	"strings"

	"recipe-aggregator/internal/pkg/common"

	json "github.com/goccy/go-json"
)

// Recipe 不可變的食譜值物件，只由供應商轉換步驟建立
type Recipe struct {
	name            string
	ingredients     []Ingredient
	method          string
	allergens       []string
	imageURL        string
	sourceURL       string
	servings        int
	timeToMake      int
	attributionText string
	attributionHTML string
}

// Params 建立 Recipe 的參數
type Params struct {
	Name              string
	Ingredients       []Ingredient
	Method            string
	Allergens         []string
	ImageURL          string
	SourceURL         string
	Servings          int
	TimeToMakeSeconds float64
	AttributionText   string
	AttributionHTML   string
}

// recipeJSON 與展示層約定的欄位名稱
type recipeJSON struct {
	Name              string       `json:"name"`
	Ingredients       []Ingredient `json:"ingredients"`
	Method            string       `json:"method"`
	Allergens         []string     `json:"allergens"`
	ImageURL          string       `json:"imageUrl"`
	SourceURL         string       `json:"sourceUrl"`
	Servings          int          `json:"servings"`
	TimeToMakeSeconds float64      `json:"timeToMakeSeconds"`
	AttributionText   string       `json:"attributionText"`
	AttributionHTML   string       `json:"attributionHtml"`
}

// New 驗證並建立 Recipe
func New(p Params) (Recipe, error) {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		return Recipe{}, common.InvalidArgumentf("recipe name is empty")
	}
	if len(p.Ingredients) == 0 {
		return Recipe{}, common.InvalidArgumentf("recipe %q has no ingredients", name)
	}
	if strings.TrimSpace(p.ImageURL) == "" {
		return Recipe{}, common.InvalidArgumentf("recipe %q has no image url", name)
	}
	if strings.TrimSpace(p.SourceURL) == "" {
		return Recipe{}, common.InvalidArgumentf("recipe %q has no source url", name)
	}
	if p.Servings < 0 {
		return Recipe{}, common.InvalidArgumentf("recipe %q has negative servings %d", name, p.Servings)
	}
	if math.IsNaN(p.TimeToMakeSeconds) || math.IsInf(p.TimeToMakeSeconds, 0) || p.TimeToMakeSeconds < 0 {
		return Recipe{}, common.InvalidArgumentf("recipe %q has invalid time to make %v", name, p.TimeToMakeSeconds)
	}

	ingredients := make([]Ingredient, len(p.Ingredients))
	copy(ingredients, p.Ingredients)
	allergens := make([]string, len(p.Allergens))
	copy(allergens, p.Allergens)

	return Recipe{
		name:            name,
		ingredients:     ingredients,
		method:          p.Method,
		allergens:       allergens,
		imageURL:        p.ImageURL,
		sourceURL:       p.SourceURL,
		servings:        p.Servings,
		timeToMake:      int(math.Floor(p.TimeToMakeSeconds)),
		attributionText: p.AttributionText,
		attributionHTML: p.AttributionHTML,
	}, nil
}

func (r Recipe) Name() string            { return r.name }
func (r Recipe) Method() string          { return r.method }
func (r Recipe) ImageURL() string        { return r.imageURL }
func (r Recipe) SourceURL() string       { return r.sourceURL }
func (r Recipe) Servings() int           { return r.servings }
func (r Recipe) TimeToMakeSeconds() int  { return r.timeToMake }
func (r Recipe) AttributionText() string { return r.attributionText }
func (r Recipe) AttributionHTML() string { return r.attributionHTML }

// Ingredients 回傳副本
func (r Recipe) Ingredients() []Ingredient {
	out := make([]Ingredient, len(r.ingredients))
	copy(out, r.ingredients)
	return out
}

// Allergens 回傳副本
func (r Recipe) Allergens() []string {
	out := make([]string, len(r.allergens))
	copy(out, r.allergens)
	return out
}

// Equals 食材數量相同且每個食材名稱都出現在對方之中；名稱與做法不列入比較
func (r Recipe) Equals(other Recipe) bool {
	if len(r.ingredients) != len(other.ingredients) {
		return false
	}
	names := make(map[string]bool, len(other.ingredients))
	for _, ing := range other.ingredients {
		names[ing.name] = true
	}
	for _, ing := range r.ingredients {
		if !names[ing.name] {
			return false
		}
	}
	return true
}

// MissCount 計算食譜中有多少食材無法與使用者食材 soft-equal 配對
func (r Recipe) MissCount(owned []Ingredient) int {
	count := 0
	for _, ing := range r.ingredients {
		matched := false
		for _, u := range owned {
			if u.SoftEquals(ing) {
				matched = true
				break
			}
		}
		if !matched {
			count++
		}
	}
	return count
}

func (r Recipe) toJSON() recipeJSON {
	return recipeJSON{
		Name:              r.name,
		Ingredients:       r.Ingredients(),
		Method:            r.method,
		Allergens:         r.Allergens(),
		ImageURL:          r.imageURL,
		SourceURL:         r.sourceURL,
		Servings:          r.servings,
		TimeToMakeSeconds: float64(r.timeToMake),
		AttributionText:   r.attributionText,
		AttributionHTML:   r.attributionHTML,
	}
}

// MarshalJSON 輸出與供應商無關的傳輸格式
func (r Recipe) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toJSON())
}

// UnmarshalJSON 經由 New 驗證後還原
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var raw recipeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := New(Params{
		Name:              raw.Name,
		Ingredients:       raw.Ingredients,
		Method:            raw.Method,
		Allergens:         raw.Allergens,
		ImageURL:          raw.ImageURL,
		SourceURL:         raw.SourceURL,
		Servings:          raw.Servings,
		TimeToMakeSeconds: raw.TimeToMakeSeconds,
		AttributionText:   raw.AttributionText,
		AttributionHTML:   raw.AttributionHTML,
	})
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
