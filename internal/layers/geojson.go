package layers

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
	"github.com/lakeshore-group/coastline-cli/internal/geometry"
)

// readGeoJSONFeatures loads a GeoJSON FeatureCollection into reference
// features. Numeric properties become attributes; the configured label
// and buffer fields are pulled out separately.
func readGeoJSONFeatures(path string, e Entry) ([]coast.ReferenceFeature, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(coast.ErrData, "read %s: %v", path, err)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrapf(coast.ErrData, "parse GeoJSON %s: %v", path, err)
	}

	features := make([]coast.ReferenceFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		rf, ok := featureFromGeoJSON(f, e)
		if !ok {
			continue
		}
		features = append(features, rf)
	}
	return features, nil
}

func featureFromGeoJSON(f *geojson.Feature, e Entry) (coast.ReferenceFeature, bool) {
	var rf coast.ReferenceFeature

	switch g := f.Geometry.(type) {
	case *geom.Polygon:
		rf.Polygon = ringCoords(g)
	case *geom.MultiPolygon:
		// Only the largest sub-polygon's rings participate in the join;
		// the study areas this tool serves have no meaningful multipart
		// reference shapes.
		if g.NumPolygons() == 0 {
			return rf, false
		}
		rf.Polygon = ringCoords(largestPolygon(g))
	case *geom.Point:
		rf.Point = geom.Coord{g.X(), g.Y()}
	case *geom.LineString:
		// Line sources feeding polygon joins are buffered into a thin
		// corridor polygon at load time.
		line := lineCoords(g)
		if len(line) < 2 {
			return rf, false
		}
		rf.Polygon = [][]geom.Coord{bufferLineRing(line, lineBufferKm(e))}
	default:
		return rf, false
	}
	if len(rf.Polygon) > 0 && len(rf.Polygon[0]) < 4 {
		return rf, false
	}

	rf.Attrs = make(map[string]float64, len(f.Properties))
	for name, v := range f.Properties {
		if n, ok := asFloat(v); ok {
			rf.Attrs[name] = n
		}
	}
	if e.LabelField != "" {
		if s, ok := f.Properties[e.LabelField].(string); ok {
			rf.Label = s
		}
	}
	if e.BufferField != "" {
		if n, ok := asFloat(f.Properties[e.BufferField]); ok {
			rf.BufferKm = n
		}
	}
	return rf, true
}

func ringCoords(p *geom.Polygon) [][]geom.Coord {
	rings := make([][]geom.Coord, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		src := p.LinearRing(i).Coords()
		ring := make([]geom.Coord, len(src))
		for j, c := range src {
			ring[j] = geom.Coord{c[0], c[1]}
		}
		rings = append(rings, ring)
	}
	return rings
}

// defaultLineBufferKm is the corridor half-width applied to line sources
// without a layer-level buffer_km, roughly 0.01 degrees at mid latitudes.
const defaultLineBufferKm = 1.1

func lineBufferKm(e Entry) float64 {
	if e.BufferKm > 0 {
		return e.BufferKm
	}
	return defaultLineBufferKm
}

// bufferLineRing turns a line into the closed ring of its corridor: the
// line offset to one side, then back along the other side.
func bufferLineRing(line []geom.Coord, halfWidthKm float64) []geom.Coord {
	left := geometry.OffsetLine(line, halfWidthKm)
	right := geometry.OffsetLine(line, -halfWidthKm)

	ring := make([]geom.Coord, 0, len(left)+len(right)+1)
	ring = append(ring, left...)
	for i := len(right) - 1; i >= 0; i-- {
		ring = append(ring, right[i])
	}
	return geometry.CloseRing(ring)
}

func largestPolygon(mp *geom.MultiPolygon) *geom.Polygon {
	best := mp.Polygon(0)
	for i := 1; i < mp.NumPolygons(); i++ {
		if mp.Polygon(i).Area() > best.Area() {
			best = mp.Polygon(i)
		}
	}
	return best
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// LoadCoastline reads the base coastline from a GeoJSON file holding a
// LineString feature. The first LineString found wins.
func LoadCoastline(path string) ([]geom.Coord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(coast.ErrData, "read coastline %s: %v", path, err)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		// A bare geometry file is also accepted.
		var g geojson.Geometry
		if gerr := json.Unmarshal(raw, &g); gerr != nil {
			return nil, eris.Wrapf(coast.ErrData, "parse coastline %s: %v", path, err)
		}
		t, derr := g.Decode()
		if derr != nil {
			return nil, eris.Wrapf(coast.ErrData, "decode coastline %s: %v", path, derr)
		}
		if ls, ok := t.(*geom.LineString); ok {
			return lineCoords(ls), nil
		}
		return nil, eris.Wrapf(coast.ErrData, "coastline %s holds no LineString", path)
	}

	for _, f := range fc.Features {
		if ls, ok := f.Geometry.(*geom.LineString); ok {
			return lineCoords(ls), nil
		}
	}
	return nil, eris.Wrapf(coast.ErrData, "coastline %s holds no LineString", path)
}

func lineCoords(ls *geom.LineString) []geom.Coord {
	src := ls.Coords()
	out := make([]geom.Coord, len(src))
	for i, c := range src {
		out[i] = geom.Coord{c[0], c[1]}
	}
	return out
}
