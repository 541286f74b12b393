package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/edgefeature"
	"github.com/moorhen-labs/hexfeatures/internal/hexgrid"
	"github.com/moorhen-labs/hexfeatures/internal/raster"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Compute pairwise edge features between hex cells",
	Long:  "Computes geodesic distances or least-cost path costs between every ordered pair of hex cells, memoized in a binary cache file that survives across invocations.",
}

// -- features distance --

var featuresDistanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Geodesic distance between cell centers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cellsPath, _ := cmd.Flags().GetString("cells")
		cells, err := readCellList(cellsPath)
		if err != nil {
			return err
		}

		cache, err := edgefeature.NewGeodeticCache(cells, hexgrid.NewH3(), cfg.Features.Ellipsoid)
		if err != nil {
			return err
		}
		return runFeatureCache(cmd, cache, "distance")
	},
}

// -- features cost --

var featuresCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Least-cost path cost over a raster cost surface",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cellsPath, _ := cmd.Flags().GetString("cells")
		cells, err := readCellList(cellsPath)
		if err != nil {
			return err
		}

		surfacePath, _ := cmd.Flags().GetString("surface")
		if surfacePath == "" {
			surfacePath = cfg.Features.CostSurface
		}
		surface, transform, err := raster.ReadASCIIGrid(surfacePath)
		if err != nil {
			return err
		}

		resolution, _ := cmd.Flags().GetInt("resolution")
		if resolution == 0 {
			resolution = cfg.Features.Resolution
		}

		cache, err := edgefeature.NewLeastCostCache(
			cells, hexgrid.NewH3(), surface, transform, resolution, cfg.Features.KNeighbours)
		if err != nil {
			return err
		}
		return runFeatureCache(cmd, cache, "cost")
	},
}

// runFeatureCache restores an existing cache file when present, fills every
// ordered pair, saves the cache, and optionally writes the matrix as CSV.
func runFeatureCache(cmd *cobra.Command, cache *edgefeature.Cache, feature string) error {
	cachePath, _ := cmd.Flags().GetString("cache")
	if cachePath == "" {
		cachePath = filepath.Join(cfg.Features.CacheDir, feature+".bin")
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return eris.Wrap(err, "create cache dir")
	}

	if _, err := os.Stat(cachePath); err == nil {
		if err := cache.Restore(cachePath); err != nil {
			return err
		}
		zap.L().Info("restored feature cache", zap.String("path", cachePath))
	}

	nodes := cache.Nodes()
	total := len(nodes) * len(nodes)
	done := 0
	for _, from := range nodes {
		for _, to := range nodes {
			if _, err := cache.Get(from, to); err != nil {
				return err
			}
			done++
		}
		zap.L().Debug("feature progress",
			zap.String("feature", feature),
			zap.Int("computed", done),
			zap.Int("total", total),
		)
	}

	if err := cache.Save(cachePath); err != nil {
		return err
	}
	zap.L().Info("saved feature cache",
		zap.String("feature", feature),
		zap.String("path", cachePath),
		zap.Int("nodes", len(nodes)),
	)

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		return nil
	}
	return writeMatrixCSV(outPath, cache)
}

// writeMatrixCSV writes the full matrix with node names on both axes.
func writeMatrixCSV(path string, cache *edgefeature.Cache) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create matrix csv")
	}
	defer f.Close() //nolint:errcheck

	nodes := cache.Nodes()
	w := csv.NewWriter(f)

	header := append([]string{""}, nodes...)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "write matrix csv")
	}
	for _, from := range nodes {
		row := make([]string, 0, len(nodes)+1)
		row = append(row, from)
		for _, to := range nodes {
			v, err := cache.Get(from, to)
			if err != nil {
				return err
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write matrix csv")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush matrix csv")
}

func init() {
	for _, c := range []*cobra.Command{featuresDistanceCmd, featuresCostCmd} {
		c.Flags().String("cells", "", "file with one hex cell name per line")
		c.Flags().String("cache", "", "binary cache file (default <cache_dir>/<feature>.bin)")
		c.Flags().String("out", "", "optional CSV matrix output path")
		_ = c.MarkFlagRequired("cells")
	}
	featuresCostCmd.Flags().String("surface", "", "ASCII grid cost surface (default from config)")
	featuresCostCmd.Flags().Int("resolution", 0, "child resolution for path endpoints (default from config)")

	featuresCmd.AddCommand(featuresDistanceCmd)
	featuresCmd.AddCommand(featuresCostCmd)
	rootCmd.AddCommand(featuresCmd)
}
