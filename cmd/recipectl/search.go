package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"recipe-aggregator/internal/core/aggregator"
	"recipe-aggregator/internal/core/cache"
	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/provider/registry"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/core/search"
	"recipe-aggregator/internal/pkg/common"
	"recipe-aggregator/internal/pkg/export"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		ingredients string
		allergies   []string
		criterion   string
		direction   string
		exportPath  string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search every enabled provider for recipes using the given ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := cache.New(cfg.Cache)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			callers, err := registry.Build(cmd.Context(), cfg, store)
			if err != nil {
				return err
			}
			agg := aggregator.New(registry.Searchers(callers), aggregator.WithTimeout(cfg.Server.RequestTimeout))
			svc, err := search.NewService(agg, cfg.Search)
			if err != nil {
				return err
			}

			result, err := svc.Search(cmd.Context(), search.Request{
				Ingredients:   ingredients,
				Allergies:     allergies,
				SortCriterion: criterion,
				SortDirection: direction,
			})
			if err != nil {
				return err
			}

			printProviders(cmd.OutOrStdout(), result.Providers)
			printRecipes(cmd.OutOrStdout(), result.Recipes)

			if exportPath != "" {
				owned := provider.OwnedIngredients(common.SplitIngredients(result.Signature))
				if err := export.WriteXLSX(exportPath, result.Recipes, owned); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nExported %d recipes to %s\n", len(result.Recipes), exportPath)
			}

			stats := store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "\nCache: %d hits, %d misses (%.0f%%)\n", stats.Hits, stats.Misses, stats.HitRatio*100)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ingredients, "ingredients", "i", "", "comma separated ingredients (required)")
	cmd.Flags().StringSliceVar(&allergies, "allergies", nil, "allergies to pass to providers")
	cmd.Flags().StringVar(&criterion, "sort", "", "RELEVANCE, TIME_TAKEN or SERVINGS")
	cmd.Flags().StringVar(&direction, "order", "", "ASCENDING or DESCENDING")
	cmd.Flags().StringVar(&exportPath, "export", "", "write results to an .xlsx file")
	_ = cmd.MarkFlagRequired("ingredients")

	return cmd
}

func printProviders(w io.Writer, reports []aggregator.ProviderReport) {
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(w, "%-12s failed: %v\n", r.Name, r.Err)
			continue
		}
		fmt.Fprintf(w, "%-12s %d recipes in %s\n", r.Name, r.Count, r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
}

func printRecipes(w io.Writer, recipes []recipe.Recipe) {
	if len(recipes) == 0 {
		fmt.Fprintln(w, "No recipes found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSERVINGS\tMINUTES\tINGREDIENTS\tSOURCE")
	for _, r := range recipes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.Name(), unknownIfZero(r.Servings()), unknownIfZero(r.TimeToMakeSeconds()/60), len(r.Ingredients()), r.SourceURL())
	}
	_ = tw.Flush()
}

func unknownIfZero(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}
