package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hexfeatures",
	Short: "Hex-grid edge features and land-cover archive tooling",
	Long:  "Downloads climate data store archives, summarizes rasters over vector zones, and computes memoized pairwise edge features (geodesic distance, least-cost path cost) between hex-grid cells.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
