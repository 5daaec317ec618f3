// Package export 將搜尋結果輸出為試算表
package export

import (
	"fmt"
	"strings"

	"recipe-aggregator/internal/core/recipe"

	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

var header = []interface{}{
	"name", "servings", "time_minutes", "ingredients", "missing", "source_url", "image_url", "attribution",
}

// WriteXLSX 每個食譜一列；missing 為相對於使用者食材缺少的數量
func WriteXLSX(path string, recipes []recipe.Recipe, owned []recipe.Ingredient) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, r := range recipes {
		names := make([]string, 0, len(r.Ingredients()))
		for _, ing := range r.Ingredients() {
			names = append(names, ing.String())
		}
		row := []interface{}{
			r.Name(),
			r.Servings(),
			r.TimeToMakeSeconds() / 60,
			strings.Join(names, "; "),
			r.MissCount(owned),
			r.SourceURL(),
			r.ImageURL(),
			r.AttributionText(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}
