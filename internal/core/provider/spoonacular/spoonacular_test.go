package spoonacular

import (
	"errors"
	"reflect"
	"testing"

	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"
)

func newTestAdapter() *Adapter {
	return New(config.ProviderConfig{BaseURL: "https://spoon.example/", APIKey: "secret"}, provider.DefaultSettings())
}

func TestBuildSearchRequest(t *testing.T) {
	req := newTestAdapter().BuildSearchRequest(provider.SearchOptions{Ingredients: "apples,flour,sugar"})

	want := "https://spoon.example/recipes/findByIngredients?fillIngredients=false&ingredients=apples%2Cflour%2Csugar&limitLicense=false&number=10&ranking=2"
	if req.URL != want {
		t.Errorf("URL = %q\nwant  %q", req.URL, want)
	}
	if req.Headers["X-Mashape-Key"] != "secret" {
		t.Errorf("missing api key header: %v", req.Headers)
	}
	if req.Headers["Accept"] != "application/json" {
		t.Errorf("Accept = %q", req.Headers["Accept"])
	}
}

func TestBuildGetRequest(t *testing.T) {
	req := newTestAdapter().BuildGetRequest("47732")
	if req.URL != "https://spoon.example/recipes/47732/information" {
		t.Errorf("URL = %q", req.URL)
	}
}

func TestExtractCandidateIDsFiltersByMissedCount(t *testing.T) {
	raw := `[
		{"id":1,"missedIngredientCount":6},
		{"id":"2","missedIngredientCount":0},
		{"id":3,"missedIngredientCount":5},
		{"id":4,"missedIngredientCount":1},
		{"id":5,"missedIngredientCount":2},
		{"id":6,"missedIngredientCount":4},
		{"id":7,"missedIngredientCount":3}
	]`
	ids, err := newTestAdapter().ExtractCandidateIDs(raw, provider.SearchOptions{})
	if err != nil {
		t.Fatalf("ExtractCandidateIDs: %v", err)
	}
	// 排序後 0,1,2,3,4 | 5,6；尾端超過門檻被丟棄
	want := []string{"2", "4", "5", "7", "6"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestExtractCandidateIDsRejectsMalformed(t *testing.T) {
	if _, err := newTestAdapter().ExtractCandidateIDs(`{"oops":`, provider.SearchOptions{}); err == nil {
		t.Error("expected error")
	}
}

func TestParseRecipe(t *testing.T) {
	raw := `{
		"title":"Apple Pie",
		"extendedIngredients":[
			{"name":"Apples","amount":3,"unit":""},
			{"name":"flour","amount":2.256,"unit":"cups"}
		],
		"instructions":"Bake it.",
		"image":"https://img.example/pie.jpg",
		"sourceUrl":"https://src.example/pie",
		"servings":8,
		"readyInMinutes":75,
		"glutenFree":false,
		"dairyFree":true,
		"creditsText":"Grandma"
	}`
	r, err := newTestAdapter().ParseRecipe(raw)
	if err != nil {
		t.Fatalf("ParseRecipe: %v", err)
	}
	if r.Name() != "apple pie" {
		t.Errorf("Name = %q", r.Name())
	}
	if r.TimeToMakeSeconds() != 4500 {
		t.Errorf("TimeToMakeSeconds = %d", r.TimeToMakeSeconds())
	}
	if r.Servings() != 8 {
		t.Errorf("Servings = %d", r.Servings())
	}
	ings := r.Ingredients()
	if len(ings) != 2 || ings[0].Name() != "apples" || ings[1].Volume() != 2.25 || ings[1].Unit() != "cups" {
		t.Errorf("ingredients = %v", ings)
	}
	if !reflect.DeepEqual(r.Allergens(), []string{"gluten"}) {
		t.Errorf("Allergens = %v", r.Allergens())
	}
	if r.AttributionText() != "Grandma" {
		t.Errorf("AttributionText = %q", r.AttributionText())
	}
}

func TestParseRecipeMissingImage(t *testing.T) {
	raw := `{"title":"x","extendedIngredients":[{"name":"a","amount":1,"unit":""}],"sourceUrl":"https://s"}`
	if _, err := newTestAdapter().ParseRecipe(raw); !errors.Is(err, common.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}
