package edgefeature

import (
	"github.com/StefanSchroeder/Golang-Ellipsoid/ellipsoid"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/moorhen-labs/hexfeatures/internal/geometry"
)

// PairwiseOptions configures the free-standing pairwise distance utility.
type PairwiseOptions struct {
	// Ellipsoid names the reference ellipsoid (default WGS84).
	Ellipsoid string

	// UseCentroids selects centroids for non-point geometries; when false a
	// guaranteed-interior representative point is used instead.
	UseCentroids bool
}

// referenceLatLng reduces a geometry to the (lat, lng) used for distance.
func referenceLatLng(g geom.T, useCentroid bool) (float64, float64, error) {
	switch t := g.(type) {
	case *geom.Point:
		c := t.Coords()
		return c[1], c[0], nil
	case *geom.Polygon:
		var c geom.Coord
		var err error
		if useCentroid {
			c, err = geometry.Centroid(t)
		} else {
			c, err = geometry.RepresentativePoint(t)
		}
		if err != nil {
			return 0, 0, err
		}
		return c[1], c[0], nil
	default:
		return 0, 0, eris.Errorf("edgefeature: unsupported geometry type %T", g)
	}
}

// Distance returns the geodesic distance in meters between two geometric
// objects (points or polygons). Polygons are reduced to centroids or
// representative points per opts.
func Distance(a, b geom.T, opts PairwiseOptions) (float64, error) {
	name := opts.Ellipsoid
	if name == "" {
		name = "WGS84"
	}
	geo := ellipsoid.Init(name, ellipsoid.Degrees, ellipsoid.Meter,
		ellipsoid.LongitudeIsSymmetric, ellipsoid.BearingIsSymmetric)
	return distanceOn(geo, a, b, opts.UseCentroids)
}

func distanceOn(geo ellipsoid.Ellipsoid, a, b geom.T, useCentroids bool) (float64, error) {
	aLat, aLng, err := referenceLatLng(a, useCentroids)
	if err != nil {
		return 0, err
	}
	bLat, bLng, err := referenceLatLng(b, useCentroids)
	if err != nil {
		return 0, err
	}
	if aLat == bLat && aLng == bLng {
		return 0, nil
	}
	dist, _ := geo.To(aLat, aLng, bLat, bLng)
	return dist, nil
}

// PairwiseDistances computes the full symmetric distance matrix for a batch
// of objects in one ellipsoid evaluation per unordered pair. The diagonal
// is zero; result[i][j] == result[j][i].
func PairwiseDistances(objects []geom.T, opts PairwiseOptions) ([][]float64, error) {
	name := opts.Ellipsoid
	if name == "" {
		name = "WGS84"
	}
	geo := ellipsoid.Init(name, ellipsoid.Degrees, ellipsoid.Meter,
		ellipsoid.LongitudeIsSymmetric, ellipsoid.BearingIsSymmetric)

	n := len(objects)
	dists := make([][]float64, n)
	for i := range dists {
		dists[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := distanceOn(geo, objects[i], objects[j], opts.UseCentroids)
			if err != nil {
				return nil, eris.Wrapf(err, "edgefeature: pairwise distance (%d,%d)", i, j)
			}
			dists[i][j] = d
			dists[j][i] = d
		}
	}
	return dists, nil
}
