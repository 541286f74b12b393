package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

func square(minX, minY, size float64) *geom.Polygon {
	return Box(minX, minY, minX+size, minY+size)
}

// lShape returns a concave polygon whose centroid lies outside it.
func lShape() *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {10, 0}, {10, 1}, {1, 1}, {1, 10}, {0, 10}, {0, 0},
	}})
}

func TestCentroidSquare(t *testing.T) {
	c, err := Centroid(square(2, 4, 6))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, c[0], 1e-9)
	assert.InDelta(t, 7.0, c[1], 1e-9)
}

func TestContains(t *testing.T) {
	sq := square(0, 0, 10)

	assert.True(t, Contains(sq, geom.Coord{5, 5}))
	assert.True(t, Contains(sq, geom.Coord{0.001, 9.999}))
	assert.False(t, Contains(sq, geom.Coord{-1, 5}))
	assert.False(t, Contains(sq, geom.Coord{5, 11}))

	l := lShape()
	assert.True(t, Contains(l, geom.Coord{0.5, 5}))
	assert.False(t, Contains(l, geom.Coord{5, 5}))
}

func TestRepresentativePointConvex(t *testing.T) {
	sq := square(0, 0, 4)
	pt, err := RepresentativePoint(sq)
	require.NoError(t, err)
	assert.True(t, Contains(sq, pt))
	// For a convex polygon the centroid is interior and preferred.
	assert.InDelta(t, 2.0, pt[0], 1e-9)
	assert.InDelta(t, 2.0, pt[1], 1e-9)
}

func TestRepresentativePointConcave(t *testing.T) {
	l := lShape()

	c, err := Centroid(l)
	require.NoError(t, err)
	// Sanity: this shape's centroid is not inside it.
	assert.False(t, Contains(l, c))

	pt, err := RepresentativePoint(l)
	require.NoError(t, err)
	assert.True(t, Contains(l, pt))
}

// fShape returns a concave polygon whose centroid lies outside it and whose
// boundary runs horizontally at exactly half the vertical extent.
func fShape() *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {6, 0}, {6, 1}, {1, 1}, {1, 5}, {10, 5}, {10, 6}, {1, 6}, {1, 10}, {0, 10}, {0, 0},
	}})
}

func TestRepresentativePointVertexAlignedScanline(t *testing.T) {
	f := fShape()

	c, err := Centroid(f)
	require.NoError(t, err)
	// Sanity: the centroid shortcut does not apply.
	require.False(t, Contains(f, c))

	pt, err := RepresentativePoint(f)
	require.NoError(t, err)
	assert.True(t, Contains(f, pt))
	// The scan must not run along the horizontal boundary edge at
	// mid-height; an unshifted scanline would return a point on it.
	assert.NotEqual(t, 5.0, pt[1])
}

func TestIntersectsBox(t *testing.T) {
	sq := square(2, 2, 4) // x,y in [2,6]

	// Overlapping, contained, and containing boxes all intersect.
	assert.True(t, IntersectsBox(sq, 5, 5, 8, 8))
	assert.True(t, IntersectsBox(sq, 3, 3, 4, 4))
	assert.True(t, IntersectsBox(sq, 0, 0, 10, 10))

	// Disjoint box.
	assert.False(t, IntersectsBox(sq, 7, 7, 9, 9))

	// Edge crossing with no vertex inside either shape: a thin diamond
	// poking through the box.
	diamond := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 4}, {4, 3.9}, {8, 4}, {4, 4.1}, {0, 4},
	}})
	assert.True(t, IntersectsBox(diamond, 1, 0, 2, 8))
}

func TestDegenerate(t *testing.T) {
	flat := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {1, 0}, {2, 0}, {0, 0},
	}})
	_, err := RepresentativePoint(flat)
	assert.Error(t, err)

	empty := geom.NewPolygon(geom.XY)
	_, err = Centroid(empty)
	assert.Error(t, err)
	assert.False(t, Contains(empty, geom.Coord{0, 0}))
}
