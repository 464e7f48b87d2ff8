// Package geometry provides the planar and geodesic primitives the scoring
// engine is built on. All operations work on go-geom coordinates in
// lon/lat degree order and report lengths and distances in kilometers.
// The engine calls only this package for geometric work, so the algorithms
// above it stay library-agnostic and testable with synthetic shapes.
package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

const (
	// earthRadiusKm is the mean Earth radius used by the haversine formula.
	earthRadiusKm = 6371.0

	degToRad = math.Pi / 180

	// kmPerDegLat is the approximate meridian arc length of one degree.
	kmPerDegLat = 110.574
	kmPerDegLng = 111.320
)

// Haversine returns the great-circle distance between two lon/lat
// coordinates in kilometers.
func Haversine(a, b geom.Coord) float64 {
	dLat := (b[1] - a[1]) * degToRad
	dLng := (b[0] - a[0]) * degToRad
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a[1]*degToRad)*math.Cos(b[1]*degToRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}

// LineLength returns the cumulative haversine length of a coordinate
// sequence in kilometers.
func LineLength(line []geom.Coord) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += Haversine(line[i-1], line[i])
	}
	return total
}

// Interpolate returns the point at fraction t in [0,1] between a and b.
// Linear in coordinate space, which is accurate enough at segment scale.
func Interpolate(a, b geom.Coord, t float64) geom.Coord {
	return geom.Coord{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
	}
}

// localXY projects p into a kilometer-scaled planar frame centered on
// origin, using an equirectangular approximation.
func localXY(origin, p geom.Coord) (x, y float64) {
	x = (p[0] - origin[0]) * kmPerDegLng * math.Cos(origin[1]*degToRad)
	y = (p[1] - origin[1]) * kmPerDegLat
	return x, y
}

// DistanceToSegment returns the distance in kilometers from p to the
// line segment a-b.
func DistanceToSegment(p, a, b geom.Coord) float64 {
	ax, ay := localXY(p, a)
	bx, by := localXY(p, b)
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(ax, ay)
	}
	t := -(ax*dx + ay*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(ax+t*dx, ay+t*dy)
}

// projectOntoSegment returns the closest point to p on segment a-b and the
// fraction along the segment where it falls.
func projectOntoSegment(p, a, b geom.Coord) (geom.Coord, float64) {
	ax, ay := localXY(p, a)
	bx, by := localXY(p, b)
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return geom.Coord{a[0], a[1]}, 0
	}
	t := -(ax*dx + ay*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Interpolate(a, b, t), t
}

// NearestPointOnLine snaps p to the closest point on the polyline. It
// returns the snapped coordinate, the index of the segment it falls on,
// the fraction along that segment, and the snap distance in kilometers.
func NearestPointOnLine(line []geom.Coord, p geom.Coord) (geom.Coord, int, float64, float64) {
	best := geom.Coord{line[0][0], line[0][1]}
	bestSeg := 0
	bestFrac := 0.0
	bestDist := math.Inf(1)
	for i := 1; i < len(line); i++ {
		cand, frac := projectOntoSegment(p, line[i-1], line[i])
		d := Haversine(p, cand)
		if d < bestDist {
			best, bestSeg, bestFrac, bestDist = cand, i-1, frac, d
		}
	}
	return best, bestSeg, bestFrac, bestDist
}

// LineSlice returns the portion of the polyline between the snapped
// images of start and end, inclusive of the interpolated cut points.
// The two markers may arrive in either traversal order.
func LineSlice(line []geom.Coord, start, end geom.Coord) []geom.Coord {
	sPt, sSeg, sFrac, _ := NearestPointOnLine(line, start)
	ePt, eSeg, eFrac, _ := NearestPointOnLine(line, end)

	if sSeg > eSeg || (sSeg == eSeg && sFrac > eFrac) {
		sPt, ePt = ePt, sPt
		sSeg, eSeg = eSeg, sSeg
		sFrac, eFrac = eFrac, sFrac
	}

	out := []geom.Coord{sPt}
	for i := sSeg + 1; i <= eSeg; i++ {
		c := line[i]
		if !coordsEqual(out[len(out)-1], c) {
			out = append(out, geom.Coord{c[0], c[1]})
		}
	}
	if !coordsEqual(out[len(out)-1], ePt) {
		out = append(out, ePt)
	}
	return out
}

// Chunk partitions the polyline into consecutive pieces of the target
// length in kilometers, cutting edges at interpolated points so that each
// piece except the last measures exactly the target. Neighboring pieces
// share their joint coordinate.
func Chunk(line []geom.Coord, lengthKm float64) [][]geom.Coord {
	if len(line) < 2 || lengthKm <= 0 {
		return nil
	}

	const tol = 1e-9
	var chunks [][]geom.Coord
	current := []geom.Coord{{line[0][0], line[0][1]}}
	remaining := lengthKm

	for i := 1; i < len(line); i++ {
		prev := current[len(current)-1]
		target := line[i]
		edge := Haversine(prev, target)

		for edge > remaining+tol {
			cut := Interpolate(prev, target, remaining/edge)
			current = append(current, cut)
			chunks = append(chunks, current)
			current = []geom.Coord{cut}
			prev = cut
			edge = Haversine(prev, target)
			remaining = lengthKm
		}

		current = append(current, geom.Coord{target[0], target[1]})
		remaining -= edge
		if remaining <= tol {
			chunks = append(chunks, current)
			current = []geom.Coord{{target[0], target[1]}}
			remaining = lengthKm
		}
	}

	if len(current) >= 2 {
		chunks = append(chunks, current)
	}
	return chunks
}

// OffsetLine shifts every vertex of the polyline laterally by distKm.
// Positive distances offset to the left of the direction of travel.
// Vertex normals average the directions of the adjacent edges.
func OffsetLine(line []geom.Coord, distKm float64) []geom.Coord {
	out := make([]geom.Coord, len(line))
	for i, p := range line {
		var dx, dy float64
		if i > 0 {
			ex, ey := localXY(line[i-1], p)
			dx, dy = dx+ex, dy+ey
		}
		if i < len(line)-1 {
			ex, ey := localXY(p, line[i+1])
			dx, dy = dx+ex, dy+ey
		}
		norm := math.Hypot(dx, dy)
		if norm == 0 {
			out[i] = geom.Coord{p[0], p[1]}
			continue
		}
		// Left-hand normal of the averaged direction.
		nx, ny := -dy/norm, dx/norm
		out[i] = geom.Coord{
			p[0] + nx*distKm/(kmPerDegLng*math.Cos(p[1]*degToRad)),
			p[1] + ny*distKm/kmPerDegLat,
		}
	}
	return out
}

// PointInRing reports whether p lies inside the ring using an even-odd
// ray cast. The ring may be open or explicitly closed.
func PointInRing(p geom.Coord, ring []geom.Coord) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		yi, yj := ring[i][1], ring[j][1]
		xi, xj := ring[i][0], ring[j][0]
		if (yi > p[1]) != (yj > p[1]) &&
			p[0] < (xj-xi)*(p[1]-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

func orientation(a, b, c geom.Coord) int {
	v := (b[1]-a[1])*(c[0]-b[0]) - (b[0]-a[0])*(c[1]-b[1])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func onSegment(a, b, c geom.Coord) bool {
	return b[0] <= math.Max(a[0], c[0]) && b[0] >= math.Min(a[0], c[0]) &&
		b[1] <= math.Max(a[1], c[1]) && b[1] >= math.Min(a[1], c[1])
}

// SegmentsIntersect reports whether segments a1-a2 and b1-b2 intersect,
// including collinear overlap and shared endpoints.
func SegmentsIntersect(a1, a2, b1, b2 geom.Coord) bool {
	o1 := orientation(a1, a2, b1)
	o2 := orientation(a1, a2, b2)
	o3 := orientation(b1, b2, a1)
	o4 := orientation(b1, b2, a2)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(a1, b1, a2) {
		return true
	}
	if o2 == 0 && onSegment(a1, b2, a2) {
		return true
	}
	if o3 == 0 && onSegment(b1, a1, b2) {
		return true
	}
	if o4 == 0 && onSegment(b1, a2, b2) {
		return true
	}
	return false
}

// RingsIntersect reports whether two rings overlap: any pair of edges
// crosses, or either ring contains a vertex of the other.
func RingsIntersect(a, b []geom.Coord) bool {
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			if SegmentsIntersect(a[i-1], a[i], b[j-1], b[j]) {
				return true
			}
		}
	}
	if len(a) > 0 && PointInRing(a[0], b) {
		return true
	}
	if len(b) > 0 && PointInRing(b[0], a) {
		return true
	}
	return false
}

// DistanceToRing returns the distance in kilometers from p to the ring
// boundary, or 0 when p lies inside.
func DistanceToRing(p geom.Coord, ring []geom.Coord) float64 {
	if PointInRing(p, ring) {
		return 0
	}
	best := math.Inf(1)
	for i := 1; i < len(ring); i++ {
		if d := DistanceToSegment(p, ring[i-1], ring[i]); d < best {
			best = d
		}
	}
	// Treat an open ring as closed.
	if n := len(ring); n >= 2 && !coordsEqual(ring[0], ring[n-1]) {
		if d := DistanceToSegment(p, ring[n-1], ring[0]); d < best {
			best = d
		}
	}
	return best
}

// Centroid returns the arithmetic mean of the coordinates. For the convex
// or near-convex reference shapes the engine deals with, this is a good
// enough representative point.
func Centroid(coords []geom.Coord) geom.Coord {
	var x, y float64
	n := len(coords)
	if n == 0 {
		return geom.Coord{0, 0}
	}
	// Skip a duplicated closing coordinate.
	if n >= 2 && coordsEqual(coords[0], coords[n-1]) {
		n--
	}
	for i := 0; i < n; i++ {
		x += coords[i][0]
		y += coords[i][1]
	}
	return geom.Coord{x / float64(n), y / float64(n)}
}

// Midpoint returns the coordinate halfway along the polyline by length.
func Midpoint(line []geom.Coord) geom.Coord {
	if len(line) == 0 {
		return geom.Coord{0, 0}
	}
	if len(line) == 1 {
		return geom.Coord{line[0][0], line[0][1]}
	}
	half := LineLength(line) / 2
	var walked float64
	for i := 1; i < len(line); i++ {
		edge := Haversine(line[i-1], line[i])
		if walked+edge >= half && edge > 0 {
			return Interpolate(line[i-1], line[i], (half-walked)/edge)
		}
		walked += edge
	}
	return geom.Coord{line[len(line)-1][0], line[len(line)-1][1]}
}

// CircleRing approximates a circle of radius radiusKm around center as a
// closed ring with the given number of vertices.
func CircleRing(center geom.Coord, radiusKm float64, steps int) []geom.Coord {
	if steps < 3 {
		steps = 16
	}
	ring := make([]geom.Coord, 0, steps+1)
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		dx := radiusKm * math.Cos(theta)
		dy := radiusKm * math.Sin(theta)
		ring = append(ring, geom.Coord{
			center[0] + dx/(kmPerDegLng*math.Cos(center[1]*degToRad)),
			center[1] + dy/kmPerDegLat,
		})
	}
	ring = append(ring, geom.Coord{ring[0][0], ring[0][1]})
	return ring
}

// CloseRing appends the first coordinate when the ring is not already
// explicitly closed.
func CloseRing(ring []geom.Coord) []geom.Coord {
	if len(ring) >= 2 && !coordsEqual(ring[0], ring[len(ring)-1]) {
		ring = append(ring, geom.Coord{ring[0][0], ring[0][1]})
	}
	return ring
}

func coordsEqual(a, b geom.Coord) bool {
	return a[0] == b[0] && a[1] == b[1]
}
