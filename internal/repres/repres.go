// Package repres finds representative points for polygons when parts of the
// map are unusable: each polygon's interior point is shifted off raster
// cells marked as thresholded (negative or infinite values) by an expanding
// four-direction search. The caller's raster is never modified.
package repres

import (
	"math"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/geometry"
	"github.com/moorhen-labs/hexfeatures/internal/raster"
)

// Options tunes the adjustment search.
type Options struct {
	// Increment is the number of raster cells added to the shift distance
	// on each round (default 1).
	Increment int

	// MaxRounds bounds the expanding search (default 100000).
	MaxRounds int
}

// FindPoints returns one representative point per polygon, guaranteed to
// lie on a non-thresholded raster cell. Cells holding negative or infinite
// values are treated as thresholded. Points that already sit on valid cells
// are still snapped to their cell center.
func FindPoints(polygons []*geom.Polygon, altitude *raster.Grid, transform raster.Affine, opts Options) ([]geom.Coord, error) {
	if opts.Increment <= 0 {
		opts.Increment = 1
	}
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = 100000
	}

	type cellRef struct{ row, col int }

	refs := make([]cellRef, len(polygons))
	vals := make([]float64, len(polygons))

	for i, p := range polygons {
		pt, err := geometry.RepresentativePoint(p)
		if err != nil {
			return nil, eris.Wrapf(err, "repres: polygon %d", i)
		}
		row, col := transform.RowCol(pt[0], pt[1])
		if !altitude.InBounds(row, col) {
			return nil, eris.Errorf("repres: polygon %d representative point outside raster", i)
		}
		refs[i] = cellRef{row, col}
		vals[i] = cellValue(altitude, row, col)
	}

	// Shift each invalid point outward until every point sits on a valid
	// cell. Each round considers the four orthogonal neighbors at the
	// current shift distance and takes the highest valid one.
	shift := opts.Increment
	for round := 0; anyInvalid(vals) && round < opts.MaxRounds; round++ {
		for i := range refs {
			if vals[i] >= 0 {
				continue
			}

			candidates := [4]cellRef{
				{refs[i].row, refs[i].col - shift},
				{refs[i].row, refs[i].col + shift},
				{refs[i].row - shift, refs[i].col},
				{refs[i].row + shift, refs[i].col},
			}

			bestVal := math.Inf(-1)
			var best cellRef
			for _, cand := range candidates {
				if !altitude.InBounds(cand.row, cand.col) {
					continue
				}
				if v := cellValue(altitude, cand.row, cand.col); v > bestVal {
					bestVal = v
					best = cand
				}
			}

			if bestVal >= 0 {
				refs[i] = best
				vals[i] = bestVal
			}
		}
		shift += opts.Increment
	}

	if anyInvalid(vals) {
		return nil, eris.New("repres: some points remain in thresholded areas")
	}

	if shift > opts.Increment {
		zap.L().Debug("repres: adjusted points off thresholded cells",
			zap.Int("final_shift", shift-opts.Increment),
		)
	}

	// Convert back to coordinates; this snaps every point to a cell center.
	out := make([]geom.Coord, len(refs))
	for i, ref := range refs {
		x, y := transform.XY(ref.row, ref.col)
		out[i] = geom.Coord{x, y}
	}
	return out, nil
}

// cellValue normalizes thresholded markers: infinite values read as -1 so a
// single "< 0" test covers both marker styles. The grid itself is left
// untouched.
func cellValue(g *raster.Grid, row, col int) float64 {
	v := g.At(row, col)
	if math.IsInf(v, 0) {
		return -1
	}
	return v
}

func anyInvalid(vals []float64) bool {
	for _, v := range vals {
		if v < 0 {
			return true
		}
	}
	return false
}
