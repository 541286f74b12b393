// Package hexgrid adapts a hexagonal grid hierarchy for the edge-feature
// engines: cell centers, child enumeration at finer resolutions, and
// resolution lookup. Node identifiers are the grid's own address strings.
package hexgrid

// Grid is the hex-grid adapter consumed by the feature engines.
type Grid interface {
	// Center returns the geographic center of the cell in degrees.
	Center(cell string) (lat, lng float64, err error)

	// Children enumerates the descendants of the cell at the given finer
	// resolution. Passing the cell's own resolution yields the cell itself.
	Children(cell string, resolution int) ([]string, error)

	// Resolution returns the resolution of the cell.
	Resolution(cell string) (int, error)
}
