package edgefeature

import (
	"github.com/StefanSchroeder/Golang-Ellipsoid/ellipsoid"
	"github.com/rotisserie/eris"

	"github.com/moorhen-labs/hexfeatures/internal/hexgrid"
)

// GeodeticEngine computes the ellipsoidal surface distance, in meters,
// between the centers of two hex cells.
type GeodeticEngine struct {
	grid hexgrid.Grid
	geo  ellipsoid.Ellipsoid
}

// NewGeodeticEngine builds the engine on the named reference ellipsoid
// ("WGS84", "GRS80", ...). The grid adapter resolves cells to centers.
func NewGeodeticEngine(grid hexgrid.Grid, ellipsoidName string) (*GeodeticEngine, error) {
	if grid == nil {
		return nil, eris.New("edgefeature: nil hex grid")
	}
	if ellipsoidName == "" {
		ellipsoidName = "WGS84"
	}
	geo := ellipsoid.Init(ellipsoidName, ellipsoid.Degrees, ellipsoid.Meter,
		ellipsoid.LongitudeIsSymmetric, ellipsoid.BearingIsSymmetric)
	return &GeodeticEngine{grid: grid, geo: geo}, nil
}

// Calculate resolves both cells to centers and returns the geodesic
// distance between them in meters.
func (e *GeodeticEngine) Calculate(fromNode, toNode string) (float64, error) {
	fromLat, fromLng, err := e.grid.Center(fromNode)
	if err != nil {
		return 0, err
	}
	toLat, toLng, err := e.grid.Center(toNode)
	if err != nil {
		return 0, err
	}
	if fromLat == toLat && fromLng == toLng {
		return 0, nil
	}
	dist, _ := e.geo.To(fromLat, fromLng, toLat, toLng)
	return dist, nil
}

// NewGeodeticCache wires a GeodeticEngine into a Cache over the given node
// ordering.
func NewGeodeticCache(nodeNames []string, grid hexgrid.Grid, ellipsoidName string) (*Cache, error) {
	engine, err := NewGeodeticEngine(grid, ellipsoidName)
	if err != nil {
		return nil, err
	}
	return NewCache(nodeNames, engine)
}
