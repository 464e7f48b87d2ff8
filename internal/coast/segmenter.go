package coast

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/lakeshore-group/coastline-cli/internal/geometry"
)

// LengthUnit tags the unit a resolution value is expressed in.
type LengthUnit string

const (
	Feet   LengthUnit = "ft"
	Meters LengthUnit = "m"
)

const (
	ftToKm = 0.0003048
	mToKm  = 0.001
)

// ResolutionKm converts a resolution value to the canonical kilometer unit.
func ResolutionKm(value float64, unit LengthUnit) (float64, error) {
	if value <= 0 {
		return 0, eris.Wrapf(ErrConfig, "resolution must be positive, got %g", value)
	}
	switch unit {
	case Feet:
		return value * ftToKm, nil
	case Meters:
		return value * mToKm, nil
	default:
		return 0, eris.Wrapf(ErrConfig, "unknown length unit %q", string(unit))
	}
}

// SegmentLine partitions a linear geometry into consecutive pieces of the
// given resolution. The final piece may be shorter than the target length.
// Segment ids are assigned 0..N-1 in traversal order.
func SegmentLine(line []geom.Coord, resolution float64, unit LengthUnit) ([]*Segment, error) {
	if len(line) < 2 {
		return nil, eris.Wrapf(ErrConfig, "geometry needs at least two points, got %d", len(line))
	}
	lengthKm, err := ResolutionKm(resolution, unit)
	if err != nil {
		return nil, err
	}

	chunks := geometry.Chunk(line, lengthKm)
	segments := make([]*Segment, len(chunks))
	for i, coords := range chunks {
		segments[i] = &Segment{
			ID:     i,
			Coords: coords,
			Raw:    make(map[Criterion]float64),
			Normal: make(map[Criterion]float64),
		}
	}
	return segments, nil
}
