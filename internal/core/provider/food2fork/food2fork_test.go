package food2fork

import (
	"reflect"
	"testing"

	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/config"
)

func newTestAdapter(limit int) *Adapter {
	return New(config.ProviderConfig{BaseURL: "http://f2f.example/api/", APIKey: "k1", ResultLimit: limit}, provider.DefaultSettings())
}

func TestBuildRequests(t *testing.T) {
	a := newTestAdapter(10)

	search := a.BuildSearchRequest(provider.SearchOptions{Ingredients: "apples,flour"})
	if search.URL != "http://f2f.example/api/search?key=k1&q=apples%2Cflour" {
		t.Errorf("search URL = %q", search.URL)
	}
	get := a.BuildGetRequest("35382")
	if get.URL != "http://f2f.example/api/get?key=k1&rId=35382" {
		t.Errorf("get URL = %q", get.URL)
	}
}

func TestExtractCandidateIDsTruncatesToLimit(t *testing.T) {
	raw := `{"count":4,"recipes":[{"recipe_id":"a1"},{"recipe_id":"b2"},{"recipe_id":3},{"recipe_id":"d4"}]}`
	ids, err := newTestAdapter(3).ExtractCandidateIDs(raw, provider.SearchOptions{})
	if err != nil {
		t.Fatalf("ExtractCandidateIDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a1", "b2", "3"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestParseRecipeFreeText(t *testing.T) {
	raw := `{"recipe":{
		"title":"Apple Crisp",
		"ingredients":["4 apples","1/2 cup flour","pinch of salt",""],
		"source_url":"http://src.example/crisp",
		"image_url":"http://img.example/crisp.jpg",
		"publisher":"Simply Recipes"
	}}`
	r, err := newTestAdapter(10).ParseRecipe(raw)
	if err != nil {
		t.Fatalf("ParseRecipe: %v", err)
	}

	ings := r.Ingredients()
	if len(ings) != 3 {
		t.Fatalf("got %d ingredients, want 3", len(ings))
	}
	if ings[0].Name() != "apples" || ings[0].Volume() != 4 {
		t.Errorf("ings[0] = %v", ings[0])
	}
	if ings[1].Name() != "cup flour" || ings[1].Volume() != 0.5 {
		t.Errorf("ings[1] = %v", ings[1])
	}
	if ings[2].Name() != "pinch of salt" || ings[2].Volume() != 0 {
		t.Errorf("ings[2] = %v", ings[2])
	}
	if r.Servings() != 0 || r.TimeToMakeSeconds() != 0 {
		t.Errorf("servings=%d time=%d, want unknown", r.Servings(), r.TimeToMakeSeconds())
	}
	if r.AttributionText() != "Simply Recipes" {
		t.Errorf("AttributionText = %q", r.AttributionText())
	}
}

func testRecipe(t *testing.T, name string, ingredients ...string) recipe.Recipe {
	t.Helper()
	ings := make([]recipe.Ingredient, len(ingredients))
	for i, n := range ingredients {
		ing, err := recipe.NewIngredient(n, 1, "")
		if err != nil {
			t.Fatal(err)
		}
		ings[i] = ing
	}
	r, err := recipe.New(recipe.Params{Name: name, Ingredients: ings, ImageURL: "i", SourceURL: "s"})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestFilterRecipesOrdersByLocalMissCount(t *testing.T) {
	a := New(config.ProviderConfig{BaseURL: "http://f2f.example"}, provider.Settings{MinimumUnfiltered: 1, RelevanceThreshold: 1})
	recipes := []recipe.Recipe{
		testRecipe(t, "far", "beef", "pork", "lamb"),
		testRecipe(t, "close", "apples", "butter"),
		testRecipe(t, "exact", "apples", "flour"),
	}

	got := a.FilterRecipes(recipes, provider.SearchOptions{Ingredients: "apples,flour"})
	var names []string
	for _, r := range got {
		names = append(names, r.Name())
	}
	if !reflect.DeepEqual(names, []string{"exact", "close"}) {
		t.Errorf("names = %v", names)
	}
}
