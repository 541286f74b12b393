package hexgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	h3 "github.com/uber/h3-go/v4"
)

// cellAt builds a valid cell address near the given coordinates.
func cellAt(lat, lng float64, res int) string {
	return h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, res).String()
}

func TestCenterNearOrigin(t *testing.T) {
	g := NewH3()
	cell := cellAt(51.5, -0.12, 6)

	lat, lng, err := g.Center(cell)
	require.NoError(t, err)

	// The cell containing a point has its center within one cell radius;
	// at resolution 6 that is well under half a degree.
	assert.InDelta(t, 51.5, lat, 0.5)
	assert.InDelta(t, -0.12, lng, 0.5)
}

func TestResolution(t *testing.T) {
	g := NewH3()

	for _, res := range []int{0, 4, 9} {
		cell := cellAt(-33.86, 151.2, res)
		got, err := g.Resolution(cell)
		require.NoError(t, err)
		assert.Equal(t, res, got)
	}
}

func TestChildren(t *testing.T) {
	g := NewH3()
	cell := cellAt(40.7, -74.0, 5)

	// Same resolution: the cell itself.
	same, err := g.Children(cell, 5)
	require.NoError(t, err)
	require.Len(t, same, 1)
	assert.Equal(t, cell, same[0])

	// One level finer: seven children, each one resolution deeper.
	children, err := g.Children(cell, 6)
	require.NoError(t, err)
	assert.Len(t, children, 7)
	for _, ch := range children {
		res, resErr := g.Resolution(ch)
		require.NoError(t, resErr)
		assert.Equal(t, 6, res)
	}

	// Two levels finer: 49.
	grandchildren, err := g.Children(cell, 7)
	require.NoError(t, err)
	assert.Len(t, grandchildren, 49)
}

func TestChildrenCoarserResolution(t *testing.T) {
	g := NewH3()
	cell := cellAt(40.7, -74.0, 5)

	_, err := g.Children(cell, 3)
	assert.Error(t, err)
}

func TestInvalidCell(t *testing.T) {
	g := NewH3()

	_, _, err := g.Center("not-hex")
	assert.Error(t, err)

	_, _, err = g.Center("ffffffffffffffff")
	assert.Error(t, err)

	_, err = g.Resolution("zzz")
	assert.Error(t, err)
}
