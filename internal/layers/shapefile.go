package layers

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

// readShapefileFeatures loads a shapefile into reference features. DBF
// attributes that parse as numbers become attributes; the rest are only
// consulted for the configured label field.
func readShapefileFeatures(path string, e Entry) ([]coast.ReferenceFeature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(coast.ErrData, "open shapefile %s: %v", path, err)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var features []coast.ReferenceFeature
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}

		var rf coast.ReferenceFeature
		switch s := shape.(type) {
		case *shp.Polygon:
			rf.Polygon = polygonRings(s.Points, s.Parts)
		case *shp.PolygonZ:
			rf.Polygon = polygonRings(s.Points, s.Parts)
		case *shp.Point:
			rf.Point = geom.Coord{s.X, s.Y}
		case *shp.PointZ:
			rf.Point = geom.Coord{s.X, s.Y}
		default:
			continue
		}
		if len(rf.Polygon) > 0 && len(rf.Polygon[0]) < 4 {
			continue
		}

		rf.Attrs = make(map[string]float64, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			if n, err := strconv.ParseFloat(val, 64); err == nil {
				rf.Attrs[name] = n
			}
			if name == e.LabelField {
				rf.Label = val
			}
			if name == e.BufferField {
				if n, err := strconv.ParseFloat(val, 64); err == nil {
					rf.BufferKm = n
				}
			}
		}
		features = append(features, rf)
	}
	return features, nil
}

// polygonRings splits a shapefile point array on its part offsets.
func polygonRings(points []shp.Point, parts []int32) [][]geom.Coord {
	if len(parts) == 0 {
		parts = []int32{0}
	}
	rings := make([][]geom.Coord, 0, len(parts))
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		ring := make([]geom.Coord, 0, end-int(start))
		for _, p := range points[start:end] {
			ring = append(ring, geom.Coord{p.X, p.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}
