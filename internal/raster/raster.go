// Package raster provides an in-memory raster surface with an affine
// pixel-to-geographic transform, used as the cost/altitude substrate for
// the edge-feature engines.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Affine maps pixel coordinates to geographic coordinates:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// Coefficient order matches the GDAL/rasterio convention.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// NorthUp returns the affine transform for a north-up raster with the given
// top-left corner and pixel size. pixelH should be positive; rows grow
// southward.
func NorthUp(originX, originY, pixelW, pixelH float64) Affine {
	return Affine{A: pixelW, B: 0, C: originX, D: 0, E: -pixelH, F: originY}
}

// XY returns the geographic coordinates of the center of pixel (row, col).
func (t Affine) XY(row, col int) (x, y float64) {
	fc := float64(col) + 0.5
	fr := float64(row) + 0.5
	return t.A*fc + t.B*fr + t.C, t.D*fc + t.E*fr + t.F
}

// RowCol returns the pixel containing geographic coordinates (x, y).
func (t Affine) RowCol(x, y float64) (row, col int) {
	det := t.A*t.E - t.B*t.D
	fx := x - t.C
	fy := y - t.F
	fcol := (t.E*fx - t.B*fy) / det
	frow := (t.A*fy - t.D*fx) / det
	return int(math.Floor(frow)), int(math.Floor(fcol))
}

// Grid is a dense 2D float64 raster stored row-major. Cells may hold NaN or
// ±Inf to mark nodata / impassable areas; interpretation is up to the caller.
type Grid struct {
	Rows, Cols int
	NoData     float64
	data       []float64
}

// NewGrid allocates a zero-filled grid.
func NewGrid(rows, cols int) *Grid {
	return &Grid{
		Rows:   rows,
		Cols:   cols,
		NoData: math.NaN(),
		data:   make([]float64, rows*cols),
	}
}

// NewGridFrom builds a grid from row slices. All rows must have equal length.
func NewGridFrom(values [][]float64) (*Grid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, eris.New("raster: empty grid")
	}
	g := NewGrid(len(values), len(values[0]))
	for r, rowVals := range values {
		if len(rowVals) != g.Cols {
			return nil, eris.Errorf("raster: ragged row %d (%d != %d)", r, len(rowVals), g.Cols)
		}
		copy(g.data[r*g.Cols:(r+1)*g.Cols], rowVals)
	}
	return g, nil
}

// At returns the value at (row, col). Out-of-bounds access panics, matching
// slice semantics; use InBounds first when coordinates are untrusted.
func (g *Grid) At(row, col int) float64 {
	if !g.InBounds(row, col) {
		panic("raster: index out of bounds")
	}
	return g.data[row*g.Cols+col]
}

// Set stores a value at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	if !g.InBounds(row, col) {
		panic("raster: index out of bounds")
	}
	g.data[row*g.Cols+col] = v
}

// InBounds reports whether (row, col) lies within the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.Rows, g.Cols)
	c.NoData = g.NoData
	copy(c.data, g.data)
	return c
}

// Values returns the backing slice in row-major order. The slice is shared;
// callers that need isolation should Clone first.
func (g *Grid) Values() []float64 {
	return g.data
}
