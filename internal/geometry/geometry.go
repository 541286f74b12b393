// Package geometry provides planar helpers over go-geom types: polygon
// centroids, point-in-polygon tests, and guaranteed-interior representative
// points. Coordinates are (x, y) = (lng, lat) throughout, matching go-geom.
package geometry

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// Centroid returns the area-weighted centroid of a polygon's outer ring.
func Centroid(p *geom.Polygon) (geom.Coord, error) {
	ring := outerRing(p)
	if len(ring) < 3 {
		return nil, eris.New("geometry: polygon ring has fewer than 3 vertices")
	}

	var area, cx, cy float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		cross := ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
		area += cross
		cx += (ring[i][0] + ring[j][0]) * cross
		cy += (ring[i][1] + ring[j][1]) * cross
	}
	area /= 2
	if area == 0 {
		// Degenerate ring; fall back to the vertex mean.
		var sx, sy float64
		for _, c := range ring {
			sx += c[0]
			sy += c[1]
		}
		n := float64(len(ring))
		return geom.Coord{sx / n, sy / n}, nil
	}
	return geom.Coord{cx / (6 * area), cy / (6 * area)}, nil
}

// Contains reports whether the point lies inside the polygon's outer ring
// (even-odd rule; boundary points count as inside).
func Contains(p *geom.Polygon, pt geom.Coord) bool {
	ring := outerRing(p)
	if len(ring) < 3 {
		return false
	}

	inside := false
	x, y := pt[0], pt[1]
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) {
			t := (y - yi) / (yj - yi)
			if x < xi+t*(xj-xi) {
				inside = !inside
			}
		}
	}
	return inside
}

// RepresentativePoint returns a point guaranteed to lie inside the polygon.
// It scans the horizontal line through the middle of the polygon's vertical
// extent and returns the midpoint of the widest interior span, the same idea
// as the usual label-point construction.
func RepresentativePoint(p *geom.Polygon) (geom.Coord, error) {
	ring := outerRing(p)
	if len(ring) < 3 {
		return nil, eris.New("geometry: polygon ring has fewer than 3 vertices")
	}

	// Prefer the centroid when it happens to be interior.
	if c, err := Centroid(p); err == nil && Contains(p, c) {
		return c, nil
	}

	minY, maxY := ring[0][1], ring[0][1]
	for _, c := range ring {
		minY = math.Min(minY, c[1])
		maxY = math.Max(maxY, c[1])
	}
	y := (minY + maxY) / 2
	if y == minY || y == maxY {
		return nil, eris.New("geometry: polygon has zero vertical extent")
	}
	// A scanline through a vertex can mis-pair the crossing spans; shift
	// upward until no vertex sits at the scan height. The loop runs at most
	// once per vertex because y strictly increases.
	step := (maxY - minY) * 1e-6
	for vertexAtHeight(ring, y) {
		y += step
		if y >= maxY {
			return nil, eris.New("geometry: no vertex-free scan height found")
		}
	}

	var xs []float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		y1, y2 := ring[i][1], ring[j][1]
		if (y1 > y) == (y2 > y) {
			continue
		}
		t := (y - y1) / (y2 - y1)
		xs = append(xs, ring[i][0]+t*(ring[j][0]-ring[i][0]))
	}
	if len(xs) < 2 {
		return nil, eris.New("geometry: no interior span found")
	}
	sort.Float64s(xs)

	// Midpoint of the widest in-out span.
	bestWidth := -1.0
	var best geom.Coord
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > bestWidth {
			bestWidth = w
			best = geom.Coord{(xs[i] + xs[i+1]) / 2, y}
		}
	}
	return best, nil
}

// Box builds an axis-aligned rectangular polygon from two corners.
func Box(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}})
}

// IntersectsBox reports whether the polygon's outer ring touches the
// axis-aligned rectangle in any way: a shared vertex, a crossing edge, or
// either shape fully containing the other.
func IntersectsBox(p *geom.Polygon, minX, minY, maxX, maxY float64) bool {
	ring := outerRing(p)
	if len(ring) < 3 {
		return false
	}

	// A polygon vertex inside the box.
	for _, c := range ring {
		if c[0] >= minX && c[0] <= maxX && c[1] >= minY && c[1] <= maxY {
			return true
		}
	}

	// A box corner inside the polygon covers polygon-contains-box and
	// box-contains-polygon via the vertex check above.
	corners := [4]geom.Coord{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY},
	}
	for _, c := range corners {
		if Contains(p, c) {
			return true
		}
	}

	// Edge crossings without any vertex falling inside the other shape.
	edges := [4][2]geom.Coord{
		{{minX, minY}, {maxX, minY}},
		{{maxX, minY}, {maxX, maxY}},
		{{maxX, maxY}, {minX, maxY}},
		{{minX, maxY}, {minX, minY}},
	}
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		for _, e := range edges {
			if segmentsCross(ring[i], ring[j], e[0], e[1]) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a, b, c, d geom.Coord) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	if o1 != o2 && o3 != o4 {
		return true
	}
	// Collinear overlap.
	if o1 == 0 && onSegment(a, b, c) {
		return true
	}
	if o2 == 0 && onSegment(a, b, d) {
		return true
	}
	if o3 == 0 && onSegment(c, d, a) {
		return true
	}
	if o4 == 0 && onSegment(c, d, b) {
		return true
	}
	return false
}

func orient(a, b, c geom.Coord) int {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func onSegment(a, b, p geom.Coord) bool {
	return p[0] >= math.Min(a[0], b[0]) && p[0] <= math.Max(a[0], b[0]) &&
		p[1] >= math.Min(a[1], b[1]) && p[1] <= math.Max(a[1], b[1])
}

func vertexAtHeight(ring []geom.Coord, y float64) bool {
	for _, c := range ring {
		if c[1] == y {
			return true
		}
	}
	return false
}

func outerRing(p *geom.Polygon) []geom.Coord {
	if p == nil || p.NumLinearRings() == 0 {
		return nil
	}
	return p.LinearRing(0).Coords()
}
