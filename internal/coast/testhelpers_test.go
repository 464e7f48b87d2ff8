package coast

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Test fixtures use an east-west coastline at the equator so kilometer
// offsets convert to degrees with simple constants.
const (
	testKmPerDegLng = 111.320
	testKmPerDegLat = 110.574
)

// testLine builds a straight coastline of the given length with a vertex
// every stepKm.
func testLine(lengthKm, stepKm float64) []geom.Coord {
	var line []geom.Coord
	for d := 0.0; d <= lengthKm+1e-9; d += stepKm {
		line = append(line, geom.Coord{d / testKmPerDegLng, 0})
	}
	return line
}

// kmPoint converts kilometer coordinates near the origin to a lon/lat
// coordinate.
func kmPoint(lngKm, latKm float64) geom.Coord {
	return geom.Coord{lngKm / testKmPerDegLng, latKm / testKmPerDegLat}
}

// squareAround returns a closed square ring of halfKm half-width centered
// on (lngKm, latKm) in kilometer coordinates.
func squareAround(lngKm, latKm, halfKm float64) []geom.Coord {
	x0 := (lngKm - halfKm) / testKmPerDegLng
	x1 := (lngKm + halfKm) / testKmPerDegLng
	y0 := (latKm - halfKm) / testKmPerDegLat
	y1 := (latKm + halfKm) / testKmPerDegLat
	return []geom.Coord{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
}

// polygonFeature builds a square polygon feature centered on kilometer
// coordinates with the given attributes.
func polygonFeature(lngKm, latKm, halfKm float64, attrs map[string]float64) ReferenceFeature {
	ring := squareAround(lngKm, latKm, halfKm)
	return ReferenceFeature{
		Polygon: [][]geom.Coord{ring},
		Point:   geom.Coord{lngKm / testKmPerDegLng, latKm / testKmPerDegLat},
		Attrs:   attrs,
	}
}

// pointFeature builds a point feature at kilometer coordinates carrying a
// single raster value.
func pointFeature(lngKm, latKm, value float64) ReferenceFeature {
	return ReferenceFeature{
		Point: geom.Coord{lngKm / testKmPerDegLng, latKm / testKmPerDegLat},
		Attrs: map[string]float64{pointValueAttr: value},
	}
}

// speciesFeature builds a buffered point feature for a named species.
func speciesFeature(lngKm, latKm float64, species string, bufferKm float64) ReferenceFeature {
	return ReferenceFeature{
		Point:    geom.Coord{lngKm / testKmPerDegLng, latKm / testKmPerDegLat},
		Label:    species,
		BufferKm: bufferKm,
	}
}

// sedimentAttrs builds a full sediment budget attribute map where every
// loss attribute carries loss and every gain attribute carries gain.
func sedimentAttrs(loss, gain float64) map[string]float64 {
	attrs := make(map[string]float64)
	for _, name := range sedimentLossAttrs {
		attrs[name] = loss
	}
	for _, name := range sedimentGainAttrs {
		attrs[name] = gain
	}
	return attrs
}

// coveringSedimentLayer returns a sediment budget layer with one big
// polygon covering the whole test line.
func coveringSedimentLayer(lengthKm, loss, gain float64) *ReferenceLayer {
	f := polygonFeature(lengthKm/2, 0, lengthKm, sedimentAttrs(loss, gain))
	return &ReferenceLayer{
		Name:     LayerSedimentBudget,
		Kind:     PolygonLayer,
		Features: []ReferenceFeature{f},
	}
}

// testSegment builds a bare segment with initialized value maps.
func testSegment(id int, coords []geom.Coord) *Segment {
	return &Segment{
		ID:     id,
		Coords: coords,
		Raw:    make(map[Criterion]float64),
		Normal: make(map[Criterion]float64),
	}
}

// scoredSegments builds segments whose FinalValueNormal values are given
// directly; used by grouping and similarity tests.
func scoredSegments(scores ...float64) []*Segment {
	segs := make([]*Segment, len(scores))
	for i, s := range scores {
		start := float64(i) / testKmPerDegLng
		end := float64(i+1) / testKmPerDegLng
		segs[i] = testSegment(i, []geom.Coord{{start, 0}, {end, 0}})
		segs[i].FinalValueNormal = s
	}
	return segs
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
