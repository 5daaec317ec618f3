package main

import (
	"fmt"
	"os"

	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var logLevel string

	root := &cobra.Command{
		Use:     "recipectl",
		Short:   "Search and manage the recipe aggregation cache",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return common.InitLogger(common.LoggerOptions{
				Level:   logLevel,
				Dir:     os.TempDir(),
				Service: "recipectl",
				Console: logLevel == "debug",
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			common.Sync()
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSearchCmd(),
		newSeedCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
