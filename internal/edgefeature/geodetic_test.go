package edgefeature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geodeticTestGrid() *fakeGrid {
	return &fakeGrid{
		centers: map[string][2]float64{
			"equator0": {0, 0},
			"equator1": {0, 1},
			"north":    {45, 10},
			"south":    {-45, 10},
		},
		res: map[string]int{
			"equator0": 5, "equator1": 5, "north": 5, "south": 5,
		},
	}
}

func TestGeodeticDistanceSanity(t *testing.T) {
	engine, err := NewGeodeticEngine(geodeticTestGrid(), "WGS84")
	require.NoError(t, err)

	// One degree of longitude along the equator is about 111.32 km.
	d, err := engine.Calculate("equator0", "equator1")
	require.NoError(t, err)
	assert.InDelta(t, 111320, d, 200)
}

func TestGeodeticSymmetry(t *testing.T) {
	engine, err := NewGeodeticEngine(geodeticTestGrid(), "WGS84")
	require.NoError(t, err)

	ab, err := engine.Calculate("north", "equator0")
	require.NoError(t, err)
	ba, err := engine.Calculate("equator0", "north")
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, 1e-6)
}

func TestGeodeticSelfDistanceZero(t *testing.T) {
	engine, err := NewGeodeticEngine(geodeticTestGrid(), "WGS84")
	require.NoError(t, err)

	d, err := engine.Calculate("north", "north")
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestGeodeticUnknownCell(t *testing.T) {
	engine, err := NewGeodeticEngine(geodeticTestGrid(), "")
	require.NoError(t, err)

	_, err = engine.Calculate("north", "missing")
	assert.Error(t, err)
}

func TestGeodeticCacheIntegration(t *testing.T) {
	cache, err := NewGeodeticCache([]string{"equator0", "equator1"}, geodeticTestGrid(), "WGS84")
	require.NoError(t, err)

	d, err := cache.Get("equator0", "equator1")
	require.NoError(t, err)
	assert.Greater(t, d, 0.0)

	// Mirror direction computes independently but matches physically.
	d2, err := cache.Get("equator1", "equator0")
	require.NoError(t, err)
	assert.InDelta(t, d, d2, 1e-6)
}

func TestGeodeticNilGrid(t *testing.T) {
	_, err := NewGeodeticEngine(nil, "WGS84")
	assert.Error(t, err)
}
