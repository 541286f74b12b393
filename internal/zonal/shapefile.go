package zonal

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Feature pairs a zone name with its polygon.
type Feature struct {
	Name    string
	Polygon *geom.Polygon
}

// ReadPolygons reads polygon features from a shapefile, naming each one from
// the given attribute field (matched case-insensitively). Records with
// missing or non-polygon geometry are skipped.
func ReadPolygons(shpPath, nameField string) ([]Feature, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "zonal: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	nameIdx := -1
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, nameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("zonal: shapefile has no field %q", nameField)
	}

	var features []Feature
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}

		g, err := polygonToGeom(poly)
		if err != nil {
			skipped++
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		features = append(features, Feature{Name: name, Polygon: g})
	}

	if skipped > 0 {
		zap.L().Debug("zonal: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return features, nil
}

// polygonToGeom converts a shapefile polygon to go-geom, treating the first
// part as the outer ring and later parts as holes.
func polygonToGeom(p *shp.Polygon) (*geom.Polygon, error) {
	if len(p.Parts) == 0 || len(p.Points) == 0 {
		return nil, eris.New("zonal: empty polygon record")
	}

	rings := make([][]geom.Coord, 0, len(p.Parts))
	for i, start := range p.Parts {
		end := int32(len(p.Points))
		if i+1 < len(p.Parts) {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			return nil, eris.New("zonal: ring has fewer than 4 points")
		}

		ring := make([]geom.Coord, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, geom.Coord{pt.X, pt.Y})
		}
		rings = append(rings, ring)
	}

	g := geom.NewPolygon(geom.XY)
	if _, err := g.SetCoords(rings); err != nil {
		return nil, eris.Wrap(err, "zonal: build polygon")
	}
	return g, nil
}
