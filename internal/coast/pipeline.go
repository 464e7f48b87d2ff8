package coast

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lakeshore-group/coastline-cli/internal/geometry"
)

// similarityResolutionFt is the fixed slicing resolution of the
// similarity pipeline: the whole coastline at 5000 ft pieces.
const similarityResolutionFt = 5000

// defaultWorkers bounds the per-segment evaluation fan-out when the
// caller does not choose one.
const defaultWorkers = 8

// Pipeline runs the scoring engine against a set of pre-loaded reference
// layers. Layers are read-only for the lifetime of every run; concurrent
// runs own their segment sets and share nothing else.
type Pipeline struct {
	layers  LayerSet
	workers int
	log     *zap.Logger
}

// NewPipeline builds a pipeline over the given layers. workers bounds the
// evaluation fan-out; values below 1 select the default.
func NewPipeline(layers LayerSet, workers int) *Pipeline {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Pipeline{
		layers:  layers,
		workers: workers,
		log:     zap.L().With(zap.String("component", "coast.pipeline")),
	}
}

// UnitsRequest parameterizes one grouping run.
type UnitsRequest struct {
	// Coastline is the base linear feature, borrowed for the run.
	Coastline []geom.Coord
	// Start and End select the stretch to score; both are snapped to the
	// coastline.
	Start geom.Coord
	End   geom.Coord
	// Resolution and Unit set the segment length.
	Resolution float64
	Unit       LengthUnit
	// Criteria lists the 1-3 active criteria in priority order.
	Criteria []Criterion
	// CategoryCount is the number of ordinal buckets, at least 2.
	CategoryCount int
}

// SimilarityRequest parameterizes one similarity run.
type SimilarityRequest struct {
	Coastline []geom.Coord
	// Midpoint is the user-selected reference location; the nearest
	// segment becomes the reference segment.
	Midpoint geom.Coord
	Criteria []Criterion
	// From and To bound the qualifying score range in [0,1].
	From float64
	To   float64
}

// GenerateUnits runs the full grouping pipeline: slice, segment, score,
// normalize, combine, and group. Configuration is validated before any
// geometry work; any error aborts the run with no partial output.
func (p *Pipeline) GenerateUnits(ctx context.Context, req UnitsRequest) (*UnitsResult, error) {
	if err := validateCriteria(req.Criteria, p.layers); err != nil {
		return nil, err
	}
	if req.CategoryCount < 2 {
		return nil, eris.Wrapf(ErrConfig, "category count must be at least 2, got %d", req.CategoryCount)
	}
	if _, err := ResolutionKm(req.Resolution, req.Unit); err != nil {
		return nil, err
	}
	if len(req.Coastline) < 2 {
		return nil, eris.Wrapf(ErrConfig, "coastline needs at least two points, got %d", len(req.Coastline))
	}

	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID))

	sliced := geometry.LineSlice(req.Coastline, req.Start, req.End)
	segments, err := SegmentLine(sliced, req.Resolution, req.Unit)
	if err != nil {
		return nil, err
	}
	log.Info("coastline sliced",
		zap.Int("segments", len(segments)),
		zap.Float64("length_km", geometry.LineLength(sliced)),
	)

	if err := p.evaluate(ctx, segments, req.Criteria); err != nil {
		return nil, err
	}
	if err := combineScores(segments, req.Criteria); err != nil {
		return nil, err
	}

	units, err := GroupSegments(segments, req.CategoryCount, req.Criteria)
	if err != nil {
		return nil, err
	}
	log.Info("units generated",
		zap.Int("units", len(units)),
		zap.Int("categories", req.CategoryCount),
	)

	return &UnitsResult{RunID: runID, Units: units, Segments: segments}, nil
}

// RankBySimilarity runs the similarity pipeline: segment the whole
// coastline at the fixed resolution, score it, resolve the midpoint to
// its nearest segment, and rank the qualifying range.
func (p *Pipeline) RankBySimilarity(ctx context.Context, req SimilarityRequest) (*SimilarityResult, error) {
	if err := validateCriteria(req.Criteria, p.layers); err != nil {
		return nil, err
	}
	if req.From < 0 || req.To > 1 || req.From > req.To {
		return nil, eris.Wrapf(ErrConfig, "score range [%g, %g] is not a subrange of [0, 1]", req.From, req.To)
	}
	if len(req.Coastline) < 2 {
		return nil, eris.Wrapf(ErrConfig, "coastline needs at least two points, got %d", len(req.Coastline))
	}

	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID))

	segments, err := SegmentLine(req.Coastline, similarityResolutionFt, Feet)
	if err != nil {
		return nil, err
	}
	if err := p.evaluate(ctx, segments, req.Criteria); err != nil {
		return nil, err
	}
	if err := combineScores(segments, req.Criteria); err != nil {
		return nil, err
	}

	reference := nearestSegment(segments, req.Midpoint)
	log.Info("reference segment resolved",
		zap.Int("segment_id", reference.ID),
		zap.Float64("score", reference.FinalValueNormal),
	)

	result, err := RankSimilarity(segments, reference.ID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	log.Info("similarity ranked", zap.Int("qualifying", len(result.Segments)))
	return result, nil
}

// evaluate computes each active criterion's raw value for every segment,
// then normalizes per criterion. Per-segment work is independent and fans
// out across workers; results land in distinct per-segment slots. The
// normalization pass is the synchronization barrier: it needs the global
// min and max, so it runs only after every evaluation goroutine finished.
func (p *Pipeline) evaluate(ctx context.Context, segments []*Segment, criteria []Criterion) error {
	for _, c := range criteria {
		values := make([]float64, len(segments))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for i, seg := range segments {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := evaluateCriterion(c, seg, p.layers)
				if err != nil {
					return err
				}
				values[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		normals, err := Normalize(values, exponentFor(c))
		if err != nil {
			return eris.Wrapf(err, "criterion %q", string(c))
		}
		for i, seg := range segments {
			seg.Raw[c] = values[i]
			seg.Normal[c] = normals[i]
		}
	}
	return nil
}

// nearestSegment returns the segment whose midpoint lies closest to p.
func nearestSegment(segments []*Segment, p geom.Coord) *Segment {
	best := segments[0]
	bestDist := math.Inf(1)
	for _, seg := range segments {
		d := geometry.Haversine(p, geometry.Midpoint(seg.Coords))
		if d < bestDist {
			best, bestDist = seg, d
		}
	}
	return best
}
