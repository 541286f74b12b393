package main

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/gridgen"
	"github.com/moorhen-labs/hexfeatures/internal/raster"
	"github.com/moorhen-labs/hexfeatures/internal/repres"
	"github.com/moorhen-labs/hexfeatures/internal/zonal"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Generate vector study inputs",
	Long:  "Commands for tiling square grids over features, sampling random points inside polygons, connecting polygon groups with random lines, and finding representative points on a usable raster cell.",
}

// -- grid cover --

var gridCoverCmd = &cobra.Command{
	Use:   "cover",
	Short: "Tile a square grid over the zones' combined bounds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		features, err := readZones(cmd)
		if err != nil {
			return err
		}
		cellSize, _ := cmd.Flags().GetFloat64("cell-size")

		cells, err := gridgen.CoveringGrid(polygonsOf(features), cellSize)
		if err != nil {
			return err
		}
		zap.L().Info("covering grid generated",
			zap.Int("cells", len(cells)),
			zap.Float64("cell_size", cellSize),
		)

		outPath, _ := cmd.Flags().GetString("out")
		rows := make([][]string, 0, len(cells))
		for i, c := range cells {
			b := c.Bounds()
			rows = append(rows, []string{
				strconv.Itoa(i),
				formatFloat(b.Min(0)), formatFloat(b.Min(1)),
				formatFloat(b.Max(0)), formatFloat(b.Max(1)),
			})
		}
		return writeCSV(outPath, []string{"cell", "min_x", "min_y", "max_x", "max_y"}, rows)
	},
}

// -- grid sample --

var gridSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample random points inside each zone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		features, err := readZones(cmd)
		if err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt("n")
		buffer, _ := cmd.Flags().GetFloat64("buffer")
		seed, _ := cmd.Flags().GetInt64("seed")
		excludePath, _ := cmd.Flags().GetString("exclude")
		nameField, _ := cmd.Flags().GetString("name-field")

		opts := gridgen.SampleOptions{Buffer: buffer, Seed: seed}
		if excludePath != "" {
			zones, err := zonal.ReadPolygons(excludePath, nameField)
			if err != nil {
				return err
			}
			opts.ExclusionZones = polygonsOf(zones)
		}

		samples, err := gridgen.SamplePoints(polygonsOf(features), n, opts)
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("out")
		rows := make([][]string, 0, len(samples))
		for _, s := range samples {
			rows = append(rows, []string{
				features[s.PolygonID].Name,
				formatFloat(s.Point.X()), formatFloat(s.Point.Y()),
			})
		}
		return writeCSV(outPath, []string{"zone", "x", "y"}, rows)
	},
}

// -- grid lines --

var gridLinesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Connect zone groups with random lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		features, err := readZones(cmd)
		if err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt("n")
		seed, _ := cmd.Flags().GetInt64("seed")

		groups := make([]gridgen.Group, len(features))
		for i, f := range features {
			groups[i] = gridgen.Group{Name: f.Name, Polygon: f.Polygon}
		}

		lines, err := gridgen.RandomLines(groups, n, seed)
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("out")
		rows := make([][]string, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []string{
				l.Origin, l.Destination,
				formatFloat(l.Start.X()), formatFloat(l.Start.Y()),
				formatFloat(l.End.X()), formatFloat(l.End.Y()),
			})
		}
		return writeCSV(outPath, []string{"origin", "destination", "start_x", "start_y", "end_x", "end_y"}, rows)
	},
}

// -- grid repres --

var gridRepresCmd = &cobra.Command{
	Use:   "repres",
	Short: "Find representative points on usable raster cells",
	RunE: func(cmd *cobra.Command, _ []string) error {
		features, err := readZones(cmd)
		if err != nil {
			return err
		}
		rasterPath, _ := cmd.Flags().GetString("raster")
		grid, transform, err := raster.ReadASCIIGrid(rasterPath)
		if err != nil {
			return err
		}

		points, err := repres.FindPoints(polygonsOf(features), grid, transform, repres.Options{})
		if err != nil {
			return err
		}

		outPath, _ := cmd.Flags().GetString("out")
		rows := make([][]string, 0, len(points))
		for i, pt := range points {
			rows = append(rows, []string{
				features[i].Name,
				formatFloat(pt.X()), formatFloat(pt.Y()),
			})
		}
		return writeCSV(outPath, []string{"zone", "x", "y"}, rows)
	},
}

func readZones(cmd *cobra.Command) ([]zonal.Feature, error) {
	shpPath, _ := cmd.Flags().GetString("zones")
	nameField, _ := cmd.Flags().GetString("name-field")
	return zonal.ReadPolygons(shpPath, nameField)
}

func polygonsOf(features []zonal.Feature) []*geom.Polygon {
	out := make([]*geom.Polygon, len(features))
	for i, f := range features {
		out[i] = f.Polygon
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "write output csv")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write output csv")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush output csv")
}

func init() {
	for _, c := range []*cobra.Command{gridCoverCmd, gridSampleCmd, gridLinesCmd, gridRepresCmd} {
		c.Flags().String("zones", "", "shapefile with zone polygons")
		c.Flags().String("name-field", "name", "attribute field holding the zone name")
		c.Flags().String("out", "", "output CSV path")
		_ = c.MarkFlagRequired("zones")
		_ = c.MarkFlagRequired("out")
	}
	gridCoverCmd.Flags().Float64("cell-size", 1, "grid cell edge length in coordinate units")
	gridSampleCmd.Flags().Int("n", 1, "points to sample per zone")
	gridSampleCmd.Flags().Float64("buffer", 0, "buffer distance around exclusion zones")
	gridSampleCmd.Flags().Int64("seed", 0, "random seed")
	gridSampleCmd.Flags().String("exclude", "", "shapefile with exclusion zones")
	gridLinesCmd.Flags().Int("n", 1, "lines per ordered group pair")
	gridLinesCmd.Flags().Int64("seed", 0, "random seed")
	gridRepresCmd.Flags().String("raster", "", "ASCII grid raster marking unusable cells with negative values")
	_ = gridRepresCmd.MarkFlagRequired("raster")

	gridCmd.AddCommand(gridCoverCmd)
	gridCmd.AddCommand(gridSampleCmd)
	gridCmd.AddCommand(gridLinesCmd)
	gridCmd.AddCommand(gridRepresCmd)
	rootCmd.AddCommand(gridCmd)
}
