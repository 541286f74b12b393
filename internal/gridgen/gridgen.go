// Package gridgen generates vector study inputs: square grids covering a
// set of features, random points sampled inside polygons away from exclusion
// zones, and random straight-line connections between groups of polygons.
package gridgen

import (
	"math"
	"math/rand"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/moorhen-labs/hexfeatures/internal/geometry"
)

// CoveringGrid returns square cells of the given size tiling the combined
// bounding box of the polygons. The last row and column may extend past the
// bounds so the features are fully covered.
func CoveringGrid(polygons []*geom.Polygon, cellSize float64) ([]*geom.Polygon, error) {
	if cellSize <= 0 {
		return nil, eris.New("gridgen: cell size must be positive")
	}
	minX, minY, maxX, maxY, err := totalBounds(polygons)
	if err != nil {
		return nil, err
	}

	var cells []*geom.Polygon
	for x := minX; x < maxX; x += cellSize {
		for y := minY; y < maxY; y += cellSize {
			cells = append(cells, geometry.Box(x, y, x+cellSize, y+cellSize))
		}
	}
	return cells, nil
}

// Sample is one random point tagged with the polygon it was drawn from.
type Sample struct {
	PolygonID int
	Point     geom.Coord
}

// SampleOptions controls point sampling.
type SampleOptions struct {
	// ExclusionZones are areas no sampled point may fall in.
	ExclusionZones []*geom.Polygon

	// Buffer extends each exclusion zone by a distance in coordinate units.
	Buffer float64

	// MaxRetries bounds the replacement rounds for points landing in
	// exclusion zones (default 100).
	MaxRetries int

	Seed int64
}

// SamplePoints draws n random points inside each polygon. Points that land
// within an exclusion zone (or its buffer) are resampled; if valid
// replacements cannot be found within the retry budget the offending points
// are dropped with a warning. This is a brute-force strategy meant for
// exclusion zones covering a small fraction of the sampled area.
func SamplePoints(polygons []*geom.Polygon, n int, opts SampleOptions) ([]Sample, error) {
	if n <= 0 {
		return nil, eris.New("gridgen: point count must be positive")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 100
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	var samples []Sample
	for id, p := range polygons {
		for i := 0; i < n; i++ {
			pt, err := randomPointIn(p, rng)
			if err != nil {
				return nil, eris.Wrapf(err, "gridgen: polygon %d", id)
			}
			samples = append(samples, Sample{PolygonID: id, Point: pt})
		}
	}

	if len(opts.ExclusionZones) == 0 {
		return samples, nil
	}

	for try := 0; try < opts.MaxRetries; try++ {
		invalid := 0
		for i := range samples {
			if !excluded(samples[i].Point, opts.ExclusionZones, opts.Buffer) {
				continue
			}
			invalid++
			pt, err := randomPointIn(polygons[samples[i].PolygonID], rng)
			if err != nil {
				return nil, eris.Wrapf(err, "gridgen: polygon %d", samples[i].PolygonID)
			}
			samples[i].Point = pt
		}
		if invalid == 0 {
			return samples, nil
		}
	}

	// Drop whatever still falls in exclusion zones.
	kept := samples[:0]
	dropped := 0
	for _, s := range samples {
		if excluded(s.Point, opts.ExclusionZones, opts.Buffer) {
			dropped++
			continue
		}
		kept = append(kept, s)
	}
	if dropped > 0 {
		zap.L().Warn("gridgen: could not place all points outside exclusion zones",
			zap.Int("dropped", dropped),
			zap.Int("max_retries", opts.MaxRetries),
		)
	}
	return kept, nil
}

// Group names a polygon for line generation.
type Group struct {
	Name    string
	Polygon *geom.Polygon
}

// Line is a straight connection between random points in two groups.
type Line struct {
	Origin      string
	Destination string
	Start       geom.Coord
	End         geom.Coord
}

// RandomLines connects n random points in each group to n random points in
// every other group, yielding n lines per ordered group pair.
func RandomLines(groups []Group, n int, seed int64) ([]Line, error) {
	if n <= 0 {
		return nil, eris.New("gridgen: connection count must be positive")
	}
	rng := rand.New(rand.NewSource(seed))

	points := make(map[string][]geom.Coord, len(groups))
	for _, g := range groups {
		if _, ok := points[g.Name]; ok {
			return nil, eris.Errorf("gridgen: duplicate group %q", g.Name)
		}
		pts := make([]geom.Coord, n)
		for i := range pts {
			pt, err := randomPointIn(g.Polygon, rng)
			if err != nil {
				return nil, eris.Wrapf(err, "gridgen: group %q", g.Name)
			}
			pts[i] = pt
		}
		points[g.Name] = pts
	}

	var lines []Line
	for _, from := range groups {
		for _, to := range groups {
			if from.Name == to.Name {
				continue
			}
			for i := 0; i < n; i++ {
				lines = append(lines, Line{
					Origin:      from.Name,
					Destination: to.Name,
					Start:       points[from.Name][i],
					End:         points[to.Name][i],
				})
			}
		}
	}
	return lines, nil
}

// randomPointIn rejection-samples a point inside the polygon from its
// bounding box.
func randomPointIn(p *geom.Polygon, rng *rand.Rand) (geom.Coord, error) {
	minX, minY, maxX, maxY, err := totalBounds([]*geom.Polygon{p})
	if err != nil {
		return nil, err
	}

	const attempts = 10000
	for i := 0; i < attempts; i++ {
		pt := geom.Coord{
			minX + rng.Float64()*(maxX-minX),
			minY + rng.Float64()*(maxY-minY),
		}
		if geometry.Contains(p, pt) {
			return pt, nil
		}
	}
	return nil, eris.New("gridgen: could not sample a point inside polygon")
}

func excluded(pt geom.Coord, zones []*geom.Polygon, buffer float64) bool {
	for _, z := range zones {
		if geometry.Contains(z, pt) {
			return true
		}
		if buffer > 0 && distanceToRing(z, pt) <= buffer {
			return true
		}
	}
	return false
}

// distanceToRing returns the planar distance from the point to the
// polygon's outer ring.
func distanceToRing(p *geom.Polygon, pt geom.Coord) float64 {
	if p.NumLinearRings() == 0 {
		return math.Inf(1)
	}
	ring := p.LinearRing(0).Coords()

	best := math.Inf(1)
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		best = math.Min(best, pointSegmentDistance(pt, ring[i], ring[j]))
	}
	return best
}

func pointSegmentDistance(p, a, b geom.Coord) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	cx, cy := a[0]+t*dx, a[1]+t*dy
	return math.Hypot(p[0]-cx, p[1]-cy)
}

func totalBounds(polygons []*geom.Polygon) (minX, minY, maxX, maxY float64, err error) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)

	seen := false
	for _, p := range polygons {
		if p == nil || p.NumLinearRings() == 0 {
			continue
		}
		for _, c := range p.LinearRing(0).Coords() {
			minX = math.Min(minX, c[0])
			maxX = math.Max(maxX, c[0])
			minY = math.Min(minY, c[1])
			maxY = math.Max(maxY, c[1])
			seen = true
		}
	}
	if !seen {
		return 0, 0, 0, 0, eris.New("gridgen: no polygon coordinates")
	}
	return minX, minY, maxX, maxY, nil
}
