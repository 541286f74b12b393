package hexgrid

import (
	"strconv"

	"github.com/rotisserie/eris"
	h3 "github.com/uber/h3-go/v4"
)

// H3 implements Grid over Uber's H3 indexing system. Cells are addressed by
// their hexadecimal string form (e.g. "87283472bffffff").
type H3 struct{}

// NewH3 returns the H3-backed grid adapter.
func NewH3() *H3 {
	return &H3{}
}

func parseCell(cell string) (h3.Cell, error) {
	v, err := strconv.ParseUint(cell, 16, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "hexgrid: parse cell %q", cell)
	}
	c := h3.Cell(v)
	if !c.IsValid() {
		return 0, eris.Errorf("hexgrid: %q is not a valid H3 cell", cell)
	}
	return c, nil
}

// Center returns the geographic center of the cell.
func (H3) Center(cell string) (float64, float64, error) {
	c, err := parseCell(cell)
	if err != nil {
		return 0, 0, err
	}
	ll := c.LatLng()
	return ll.Lat, ll.Lng, nil
}

// Children enumerates the cell's descendants at the given resolution.
func (H3) Children(cell string, resolution int) ([]string, error) {
	c, err := parseCell(cell)
	if err != nil {
		return nil, err
	}
	if resolution < c.Resolution() {
		return nil, eris.Errorf("hexgrid: resolution %d coarser than cell resolution %d", resolution, c.Resolution())
	}
	children := c.Children(resolution)
	out := make([]string, len(children))
	for i, ch := range children {
		out[i] = ch.String()
	}
	return out, nil
}

// Resolution returns the resolution of the cell.
func (H3) Resolution(cell string) (int, error) {
	c, err := parseCell(cell)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}
