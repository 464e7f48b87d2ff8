package coast

import (
	"github.com/twpayne/go-geom"

	"github.com/lakeshore-group/coastline-cli/internal/geometry"
)

// A segment is a zero-width line, so overlap queries need a small polygon
// around it. The lateral box offsets a simplified version of the segment
// to both sides and closes the two offset lines into a quadrilateral-ish
// ring. The box exists only for the duration of one join call.

// boxSimplifyThreshold is the vertex count above which a segment is
// reduced to its endpoints plus evenly spaced interior points.
const boxSimplifyThreshold = 6

// boxInteriorPoints caps how many interior vertices the simplified
// representative line keeps.
const boxInteriorPoints = 4

// simplifyForBox returns the representative line used to build the box.
// Short segments pass through unchanged; longer ones are reduced to the
// endpoints plus up to four evenly spaced interior vertices. Interior
// picks that duplicate a neighbor of an endpoint are dropped so the
// offset lines cannot degenerate.
func simplifyForBox(coords []geom.Coord) []geom.Coord {
	n := len(coords)
	if n <= boxSimplifyThreshold {
		return coords
	}

	out := []geom.Coord{coords[0]}
	step := float64(n-1) / float64(boxInteriorPoints+1)
	for i := 1; i <= boxInteriorPoints; i++ {
		idx := int(step * float64(i))
		if idx <= 0 || idx >= n-1 {
			continue
		}
		c := coords[idx]
		last := out[len(out)-1]
		if c[0] == last[0] && c[1] == last[1] {
			continue
		}
		out = append(out, c)
	}
	end := coords[n-1]
	if last := out[len(out)-1]; last[0] != end[0] || last[1] != end[1] {
		out = append(out, end)
	}
	return out
}

// lateralBox builds the closed inclusion ring around a segment, offset
// distKm to each side.
func lateralBox(coords []geom.Coord, distKm float64) []geom.Coord {
	simple := simplifyForBox(coords)

	left := geometry.OffsetLine(simple, distKm)
	right := geometry.OffsetLine(simple, -distKm)

	// Walk out along the left offset, then back along the reversed right
	// offset; closing the ring adds the two connecting end segments.
	ring := make([]geom.Coord, 0, len(left)+len(right)+1)
	ring = append(ring, left...)
	for i := len(right) - 1; i >= 0; i-- {
		ring = append(ring, right[i])
	}
	return geometry.CloseRing(ring)
}
