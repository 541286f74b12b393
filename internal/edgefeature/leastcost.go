package edgefeature

import (
	"github.com/rotisserie/eris"

	"github.com/moorhen-labs/hexfeatures/internal/costpath"
	"github.com/moorhen-labs/hexfeatures/internal/hexgrid"
	"github.com/moorhen-labs/hexfeatures/internal/raster"
)

// LeastCostEngine computes minimum cumulative traversal cost between two hex
// cells over a raster cost surface.
//
// Resolution controls how: when it equals the native resolution of the node
// identifiers, cost runs between the two cell centers. When finer, both
// cells are expanded to their children at that resolution and a single
// multi-source, multi-target search returns the minimum cost over all child
// pairs — the target endpoints sit close together, so one outward search
// visits them all anyway.
type LeastCostEngine struct {
	grid           hexgrid.Grid
	surface        *raster.Grid
	transform      raster.Affine
	resolution     int
	baseResolution int
	kNeighbours    int
}

// NewLeastCostEngine validates and builds the engine. The target resolution
// must be at least as fine as the resolution of the first node name;
// kNeighbours (reserved for trimming redundant multi-endpoint searches)
// must be >= 1.
func NewLeastCostEngine(
	nodeNames []string,
	grid hexgrid.Grid,
	surface *raster.Grid,
	transform raster.Affine,
	resolution int,
	kNeighbours int,
) (*LeastCostEngine, error) {
	if grid == nil {
		return nil, eris.New("edgefeature: nil hex grid")
	}
	if surface == nil {
		return nil, eris.New("edgefeature: nil cost surface")
	}
	if len(nodeNames) == 0 {
		return nil, eris.New("edgefeature: empty node name list")
	}
	if kNeighbours < 1 {
		return nil, eris.New("edgefeature: k_neighbours must be >= 1")
	}

	baseResolution, err := grid.Resolution(nodeNames[0])
	if err != nil {
		return nil, err
	}
	if resolution < baseResolution {
		return nil, eris.Errorf(
			"edgefeature: resolution must be at least as fine as the node cells (>= %d), got %d",
			baseResolution, resolution)
	}

	return &LeastCostEngine{
		grid:           grid,
		surface:        surface,
		transform:      transform,
		resolution:     resolution,
		baseResolution: baseResolution,
		kNeighbours:    kNeighbours,
	}, nil
}

// CostsFromGeo runs one cumulative-cost search from all start coordinates
// and returns the cost at each end coordinate, using whichever start is
// cheapest. Coordinates are (lat, lng) pairs.
func (e *LeastCostEngine) CostsFromGeo(starts, ends [][2]float64) ([]float64, error) {
	sources := make([]costpath.Point, len(starts))
	for i, c := range starts {
		row, col := e.transform.RowCol(c[1], c[0])
		if !e.surface.InBounds(row, col) {
			return nil, eris.Errorf("edgefeature: start coordinate (%f, %f) outside cost surface", c[0], c[1])
		}
		sources[i] = costpath.Point{Row: row, Col: col}
	}

	targets := make([]costpath.Point, len(ends))
	for i, c := range ends {
		row, col := e.transform.RowCol(c[1], c[0])
		if !e.surface.InBounds(row, col) {
			return nil, eris.Errorf("edgefeature: end coordinate (%f, %f) outside cost surface", c[0], c[1])
		}
		targets[i] = costpath.Point{Row: row, Col: col}
	}

	res, err := costpath.FindCosts(e.surface, sources)
	if err != nil {
		return nil, err
	}
	return res.TargetCosts(targets)
}

// Calculate returns the least cumulative cost between the two cells.
func (e *LeastCostEngine) Calculate(fromNode, toNode string) (float64, error) {
	if e.resolution == e.baseResolution {
		fromCenter, err := e.center(fromNode)
		if err != nil {
			return 0, err
		}
		toCenter, err := e.center(toNode)
		if err != nil {
			return 0, err
		}
		costs, err := e.CostsFromGeo([][2]float64{fromCenter}, [][2]float64{toCenter})
		if err != nil {
			return 0, err
		}
		return costs[0], nil
	}

	fromCenters, err := e.childCenters(fromNode)
	if err != nil {
		return 0, err
	}
	toCenters, err := e.childCenters(toNode)
	if err != nil {
		return 0, err
	}

	costs, err := e.CostsFromGeo(fromCenters, toCenters)
	if err != nil {
		return 0, err
	}

	min := costs[0]
	for _, c := range costs[1:] {
		if c < min {
			min = c
		}
	}
	return min, nil
}

func (e *LeastCostEngine) center(node string) ([2]float64, error) {
	lat, lng, err := e.grid.Center(node)
	if err != nil {
		return [2]float64{}, err
	}
	return [2]float64{lat, lng}, nil
}

func (e *LeastCostEngine) childCenters(node string) ([][2]float64, error) {
	children, err := e.grid.Children(node, e.resolution)
	if err != nil {
		return nil, err
	}
	centers := make([][2]float64, len(children))
	for i, child := range children {
		c, err := e.center(child)
		if err != nil {
			return nil, err
		}
		centers[i] = c
	}
	return centers, nil
}

// NewLeastCostCache wires a LeastCostEngine into a Cache over the given node
// ordering.
func NewLeastCostCache(
	nodeNames []string,
	grid hexgrid.Grid,
	surface *raster.Grid,
	transform raster.Affine,
	resolution int,
	kNeighbours int,
) (*Cache, error) {
	engine, err := NewLeastCostEngine(nodeNames, grid, surface, transform, resolution, kNeighbours)
	if err != nil {
		return nil, err
	}
	return NewCache(nodeNames, engine)
}
