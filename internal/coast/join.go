package coast

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/lakeshore-group/coastline-cli/internal/geometry"
)

// Spatial join between a segment's lateral box and one reference layer.
// The overlap queries can legitimately come back empty for short segments
// against sparse data; queryNearest is the guaranteed-non-empty fallback
// so no segment is ever left without a value.

// queryOverlap returns every polygon feature in the layer whose outer ring
// overlaps the box ring.
func queryOverlap(box []geom.Coord, layer *ReferenceLayer) []*ReferenceFeature {
	var hits []*ReferenceFeature
	for i := range layer.Features {
		f := &layer.Features[i]
		if len(f.Polygon) == 0 {
			continue
		}
		if geometry.RingsIntersect(box, f.Polygon[0]) {
			hits = append(hits, f)
		}
	}
	return hits
}

// queryPointsWithin returns every point feature contained in the box ring.
func queryPointsWithin(box []geom.Coord, layer *ReferenceLayer) []*ReferenceFeature {
	var hits []*ReferenceFeature
	for i := range layer.Features {
		f := &layer.Features[i]
		if f.Point == nil {
			continue
		}
		if geometry.PointInRing(f.Point, box) {
			hits = append(hits, f)
		}
	}
	return hits
}

// queryBufferedWithin returns every buffered-point feature whose buffer
// circle reaches the box ring.
func queryBufferedWithin(box []geom.Coord, layer *ReferenceLayer) []*ReferenceFeature {
	var hits []*ReferenceFeature
	for i := range layer.Features {
		f := &layer.Features[i]
		if f.Point == nil {
			continue
		}
		radius := f.BufferKm
		if radius <= 0 {
			radius = layer.BufferKm
		}
		if geometry.DistanceToRing(f.Point, box) <= radius {
			hits = append(hits, f)
		}
	}
	return hits
}

// queryNearest returns the single feature whose representative point is
// closest to the representative point of the segment, or ErrData when the
// layer holds no features at all.
func queryNearest(seg *Segment, layer *ReferenceLayer) (*ReferenceFeature, error) {
	if len(layer.Features) == 0 {
		return nil, eris.Wrapf(ErrData, "layer %q is empty", layer.Name)
	}
	center := geometry.Midpoint(seg.Coords)

	var best *ReferenceFeature
	bestDist := math.Inf(1)
	for i := range layer.Features {
		f := &layer.Features[i]
		d := geometry.Haversine(center, f.RepresentativePoint())
		if d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, nil
}

// joinFeatures runs the kind-appropriate overlap query and falls back to
// the nearest feature when the overlap comes back empty.
func joinFeatures(seg *Segment, box []geom.Coord, layer *ReferenceLayer) ([]*ReferenceFeature, error) {
	var hits []*ReferenceFeature
	switch layer.Kind {
	case PolygonLayer:
		hits = queryOverlap(box, layer)
	case PointLayer:
		hits = queryPointsWithin(box, layer)
	case BufferedPointLayer:
		hits = queryBufferedWithin(box, layer)
	}
	if len(hits) > 0 {
		return hits, nil
	}
	nearest, err := queryNearest(seg, layer)
	if err != nil {
		return nil, err
	}
	return []*ReferenceFeature{nearest}, nil
}

func centroidOf(ring []geom.Coord) geom.Coord {
	return geometry.Centroid(ring)
}
