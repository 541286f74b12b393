package gridgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/moorhen-labs/hexfeatures/internal/geometry"
)

func TestCoveringGrid(t *testing.T) {
	polys := []*geom.Polygon{
		geometry.Box(0, 0, 3, 3),
		geometry.Box(7, 7, 10, 10),
	}

	cells, err := CoveringGrid(polys, 5)
	require.NoError(t, err)
	assert.Len(t, cells, 4) // 2×2 over the 10×10 combined bounds

	// Every input vertex falls inside some cell.
	for _, p := range polys {
		for _, c := range p.LinearRing(0).Coords() {
			found := false
			for _, cell := range cells {
				if geometry.IntersectsBox(cell, c[0], c[1], c[0], c[1]) {
					found = true
					break
				}
			}
			assert.True(t, found)
		}
	}
}

func TestCoveringGridValidation(t *testing.T) {
	_, err := CoveringGrid([]*geom.Polygon{geometry.Box(0, 0, 1, 1)}, 0)
	assert.Error(t, err)

	_, err = CoveringGrid(nil, 1)
	assert.Error(t, err)
}

func TestSamplePointsInsidePolygons(t *testing.T) {
	polys := []*geom.Polygon{
		geometry.Box(0, 0, 10, 10),
		geometry.Box(20, 0, 30, 10),
	}

	samples, err := SamplePoints(polys, 25, SampleOptions{Seed: 7})
	require.NoError(t, err)
	require.Len(t, samples, 50)

	for _, s := range samples {
		assert.True(t, geometry.Contains(polys[s.PolygonID], s.Point))
	}
}

func TestSamplePointsDeterministic(t *testing.T) {
	polys := []*geom.Polygon{geometry.Box(0, 0, 10, 10)}

	a, err := SamplePoints(polys, 10, SampleOptions{Seed: 42})
	require.NoError(t, err)
	b, err := SamplePoints(polys, 10, SampleOptions{Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSamplePointsRespectsExclusionZones(t *testing.T) {
	polys := []*geom.Polygon{geometry.Box(0, 0, 10, 10)}
	exclusion := geometry.Box(4, 4, 6, 6)

	samples, err := SamplePoints(polys, 100, SampleOptions{
		ExclusionZones: []*geom.Polygon{exclusion},
		Buffer:         0.5,
		Seed:           1,
	})
	require.NoError(t, err)
	require.Len(t, samples, 100)

	for _, s := range samples {
		assert.False(t, geometry.Contains(exclusion, s.Point))
		assert.Greater(t, distanceToRing(exclusion, s.Point), 0.5)
	}
}

func TestSamplePointsDropsUnplaceable(t *testing.T) {
	// Exclusion fully covers the polygon, so nothing can be placed.
	polys := []*geom.Polygon{geometry.Box(2, 2, 4, 4)}
	exclusion := geometry.Box(0, 0, 10, 10)

	samples, err := SamplePoints(polys, 5, SampleOptions{
		ExclusionZones: []*geom.Polygon{exclusion},
		MaxRetries:     3,
		Seed:           1,
	})
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestRandomLines(t *testing.T) {
	groups := []Group{
		{Name: "a", Polygon: geometry.Box(0, 0, 5, 5)},
		{Name: "b", Polygon: geometry.Box(10, 0, 15, 5)},
		{Name: "c", Polygon: geometry.Box(0, 10, 5, 15)},
	}

	lines, err := RandomLines(groups, 4, 9)
	require.NoError(t, err)
	// 4 lines per ordered pair of 3 groups.
	assert.Len(t, lines, 4*3*2)

	byPair := make(map[[2]string]int)
	for _, l := range lines {
		require.NotEqual(t, l.Origin, l.Destination)
		byPair[[2]string{l.Origin, l.Destination}]++
	}
	for pair, count := range byPair {
		assert.Equal(t, 4, count, "pair %v", pair)
	}
}

func TestRandomLinesEndpointsInsideGroups(t *testing.T) {
	a := geometry.Box(0, 0, 5, 5)
	b := geometry.Box(10, 0, 15, 5)
	groups := []Group{{Name: "a", Polygon: a}, {Name: "b", Polygon: b}}

	lines, err := RandomLines(groups, 3, 1)
	require.NoError(t, err)

	for _, l := range lines {
		if l.Origin == "a" {
			assert.True(t, geometry.Contains(a, l.Start))
			assert.True(t, geometry.Contains(b, l.End))
		} else {
			assert.True(t, geometry.Contains(b, l.Start))
			assert.True(t, geometry.Contains(a, l.End))
		}
	}
}

func TestRandomLinesDuplicateGroup(t *testing.T) {
	g := geometry.Box(0, 0, 1, 1)
	_, err := RandomLines([]Group{{Name: "x", Polygon: g}, {Name: "x", Polygon: g}}, 1, 0)
	assert.Error(t, err)
}
