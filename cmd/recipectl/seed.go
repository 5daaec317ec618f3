package main

import (
	"fmt"
	"os"

	"recipe-aggregator/internal/core/cache"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load raw provider responses from a YAML fixture into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()

			fixture, err := cache.LoadFixture(fh)
			if err != nil {
				return err
			}

			store, err := cache.New(cfg.Cache)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			res, err := fixture.Apply(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d providers: %d searches, %d recipes (existing entries kept)\n",
				res.Providers, res.Searches, res.Recipes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "fixture file")
	return cmd
}
