// Package zonal summarises raster values within polygons: continuous
// statistics per zone, and per-category counts or coverage proportions for
// categorical rasters. Proportions account for nodata and NaN pixels, so
// they may not sum to 1 within a zone.
package zonal

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/moorhen-labs/hexfeatures/internal/geometry"
	"github.com/moorhen-labs/hexfeatures/internal/raster"
)

// Stats holds continuous summary statistics for one zone.
type Stats struct {
	Count int
	Sum   float64
	Mean  float64
	Min   float64
	Max   float64
}

// Options controls pixel selection.
type Options struct {
	// AllTouched includes every pixel the polygon touches; when false only
	// pixels whose centers fall inside the polygon are counted.
	AllTouched bool
}

// Summarize computes continuous statistics of the raster within each
// polygon. Nodata and NaN pixels are excluded; a zone covering no valid
// pixels reports Count 0 and NaN statistics.
func Summarize(g *raster.Grid, transform raster.Affine, polygons []*geom.Polygon, opts Options) ([]Stats, error) {
	if g == nil {
		return nil, eris.New("zonal: nil raster")
	}

	out := make([]Stats, len(polygons))
	for i, p := range polygons {
		cells, err := selectCells(g, transform, p, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "zonal: polygon %d", i)
		}

		s := Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
		for _, c := range cells {
			v := g.At(c.row, c.col)
			if math.IsNaN(v) || v == g.NoData {
				continue
			}
			if s.Count == 0 {
				s.Min, s.Max = v, v
			} else {
				s.Min = math.Min(s.Min, v)
				s.Max = math.Max(s.Max, v)
			}
			s.Sum += v
			s.Count++
		}
		if s.Count > 0 {
			s.Mean = s.Sum / float64(s.Count)
		}
		out[i] = s
	}
	return out, nil
}

// SummarizeCategorical counts pixels per category within each polygon. The
// optional value map translates raster values to labels; unmapped values are
// labelled with their numeric form. With proportion set, counts are divided
// by the total pixels in the zone including nodata and NaN.
func SummarizeCategorical(g *raster.Grid, transform raster.Affine, polygons []*geom.Polygon, valueMap map[float64]string, proportion bool, opts Options) ([]map[string]float64, error) {
	if g == nil {
		return nil, eris.New("zonal: nil raster")
	}

	out := make([]map[string]float64, len(polygons))
	for i, p := range polygons {
		cells, err := selectCells(g, transform, p, opts)
		if err != nil {
			return nil, eris.Wrapf(err, "zonal: polygon %d", i)
		}

		counts := make(map[string]float64)
		total := 0
		for _, c := range cells {
			total++
			v := g.At(c.row, c.col)
			if math.IsNaN(v) || v == g.NoData {
				continue
			}
			counts[categoryLabel(v, valueMap)]++
		}

		if proportion && total > 0 {
			for k := range counts {
				counts[k] /= float64(total)
			}
		}
		out[i] = counts
	}
	return out, nil
}

type cell struct{ row, col int }

// selectCells returns the raster cells covered by the polygon, clipped to
// the raster extent.
func selectCells(g *raster.Grid, transform raster.Affine, p *geom.Polygon, opts Options) ([]cell, error) {
	ring := p.LinearRing(0).Coords()
	if len(ring) < 3 {
		return nil, eris.New("zonal: polygon ring has fewer than 3 vertices")
	}

	minX, minY := ring[0][0], ring[0][1]
	maxX, maxY := minX, minY
	for _, c := range ring {
		minX = math.Min(minX, c[0])
		maxX = math.Max(maxX, c[0])
		minY = math.Min(minY, c[1])
		maxY = math.Max(maxY, c[1])
	}

	// Candidate row/col window from the bounding box corners.
	r1, c1 := transform.RowCol(minX, maxY)
	r2, c2 := transform.RowCol(maxX, minY)
	rowLo, rowHi := minMax(r1, r2)
	colLo, colHi := minMax(c1, c2)

	var cells []cell
	for row := rowLo; row <= rowHi; row++ {
		for col := colLo; col <= colHi; col++ {
			if !g.InBounds(row, col) {
				continue
			}
			x, y := transform.XY(row, col)
			if opts.AllTouched {
				halfW := math.Abs(transform.A) / 2
				halfH := math.Abs(transform.E) / 2
				if geometry.IntersectsBox(p, x-halfW, y-halfH, x+halfW, y+halfH) {
					cells = append(cells, cell{row, col})
				}
			} else if geometry.Contains(p, geom.Coord{x, y}) {
				cells = append(cells, cell{row, col})
			}
		}
	}
	return cells, nil
}

func categoryLabel(v float64, valueMap map[float64]string) string {
	if label, ok := valueMap[v]; ok {
		return label
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
