package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/raster"
	"github.com/moorhen-labs/hexfeatures/internal/zonal"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a raster over vector zones",
	Long:  "Computes per-zone statistics (or categorical class proportions) for an ASCII grid raster over polygons read from a shapefile, and writes the result as XLSX or CSV.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rasterPath, _ := cmd.Flags().GetString("raster")
		shpPath, _ := cmd.Flags().GetString("zones")
		nameField, _ := cmd.Flags().GetString("name-field")
		allTouched, _ := cmd.Flags().GetBool("all-touched")
		categorical, _ := cmd.Flags().GetBool("categorical")
		proportion, _ := cmd.Flags().GetBool("proportion")
		valueMapPath, _ := cmd.Flags().GetString("value-map")
		legendPath, _ := cmd.Flags().GetString("legend")
		column, _ := cmd.Flags().GetString("column")
		outPath, _ := cmd.Flags().GetString("out")

		grid, transform, err := raster.ReadASCIIGrid(rasterPath)
		if err != nil {
			return err
		}

		features, err := zonal.ReadPolygons(shpPath, nameField)
		if err != nil {
			return err
		}
		names := make([]string, len(features))
		polygons := make([]*geom.Polygon, len(features))
		for i, f := range features {
			names[i] = f.Name
			polygons[i] = f.Polygon
		}
		zap.L().Info("summarizing raster",
			zap.String("raster", rasterPath),
			zap.Int("zones", len(polygons)),
			zap.Bool("categorical", categorical),
		)

		opts := zonal.Options{AllTouched: allTouched}

		var table *zonal.Table
		if categorical {
			valueMap, err := loadValueMap(valueMapPath, legendPath)
			if err != nil {
				return err
			}
			zones, err := zonal.SummarizeCategorical(grid, transform, polygons, valueMap, proportion, opts)
			if err != nil {
				return err
			}
			table, err = zonal.BuildCategoricalTable(names, zones)
			if err != nil {
				return err
			}
		} else {
			stats, err := zonal.Summarize(grid, transform, polygons, opts)
			if err != nil {
				return err
			}
			table, err = zonal.BuildStatsTable(names, stats, column)
			if err != nil {
				return err
			}
		}

		switch {
		case strings.HasSuffix(outPath, ".xlsx"):
			return table.WriteXLSX(outPath, "summary")
		case strings.HasSuffix(outPath, ".csv"):
			return table.WriteCSV(outPath)
		default:
			return eris.Errorf("unsupported output format: %s (want .xlsx or .csv)", outPath)
		}
	},
}

// loadValueMap resolves class labels from a YAML value map or a legend CSV;
// with neither, raw raster values label the columns.
func loadValueMap(valueMapPath, legendPath string) (map[float64]string, error) {
	switch {
	case valueMapPath != "" && legendPath != "":
		return nil, eris.New("use either --value-map or --legend, not both")
	case valueMapPath != "":
		return zonal.LoadValueMap(valueMapPath)
	case legendPath != "":
		return zonal.LoadLegendCSV(legendPath)
	default:
		return nil, nil
	}
}

func init() {
	summarizeCmd.Flags().String("raster", "", "ASCII grid raster to summarize")
	summarizeCmd.Flags().String("zones", "", "shapefile with zone polygons")
	summarizeCmd.Flags().String("name-field", "name", "attribute field holding the zone name")
	summarizeCmd.Flags().Bool("all-touched", false, "include cells touched by a zone boundary, not only cell centers inside it")
	summarizeCmd.Flags().Bool("categorical", false, "count class occurrences instead of continuous statistics")
	summarizeCmd.Flags().Bool("proportion", false, "report categorical counts as proportions of the zone")
	summarizeCmd.Flags().String("value-map", "", "YAML file mapping raster values to class labels")
	summarizeCmd.Flags().String("legend", "", "semicolon-separated legend CSV mapping raster values to class labels")
	summarizeCmd.Flags().String("column", "mean", "column name for the continuous statistic")
	summarizeCmd.Flags().String("out", "", "output path (.xlsx or .csv)")
	_ = summarizeCmd.MarkFlagRequired("raster")
	_ = summarizeCmd.MarkFlagRequired("zones")
	_ = summarizeCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(summarizeCmd)
}
