package coast

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// catBoundaryEpsilon absorbs floating-point error in the boundary
// comparison `score <= range*i`: a score sitting exactly on a boundary
// lands in the lower bucket even when range*i was computed a hair small.
const catBoundaryEpsilon = 1e-9

// AssignCategory buckets a normalized score into an ordinal category in
// [1, catCount]. A score of exactly 1 always lands in the top bucket,
// guarding against range*catCount rounding below 1.
func AssignCategory(score float64, catCount int) int {
	if score == 1 {
		return catCount
	}
	scoreRange := 1 / float64(catCount)
	for i := 1; i <= catCount; i++ {
		if score <= scoreRange*float64(i)+catBoundaryEpsilon {
			return i
		}
	}
	return catCount
}

// GroupSegments assigns a category to every segment from its normalized
// final score and merges maximal runs of contiguous same-category
// segments into units. The fold is inherently sequential: each boundary
// decision depends on the previous segment's category.
func GroupSegments(segments []*Segment, catCount int, criteria []Criterion) ([]Unit, error) {
	if catCount < 2 {
		return nil, eris.Wrapf(ErrConfig, "category count must be at least 2, got %d", catCount)
	}
	if len(segments) == 0 {
		return nil, eris.Wrap(ErrConfig, "no segments to group")
	}

	var units []Unit
	run := []*Segment{}
	for _, seg := range segments {
		seg.Category = AssignCategory(seg.FinalValueNormal, catCount)
		if len(run) > 0 && seg.Category != run[len(run)-1].Category {
			units = append(units, mergeRun(len(units), run, criteria))
			run = run[:0:0]
		}
		run = append(run, seg)
	}
	units = append(units, mergeRun(len(units), run, criteria))
	return units, nil
}

// mergeRun builds one unit from a run of contiguous same-category
// segments. Geometry concatenates the coordinate sequences with the
// shared joint of each neighboring pair kept once; values and the final
// score are arithmetic means across the run.
func mergeRun(id int, run []*Segment, criteria []Criterion) Unit {
	unit := Unit{
		ID:       id,
		Category: run[0].Category,
		Values:   make(map[Criterion]float64, len(criteria)),
	}

	var coords []geom.Coord
	for i, seg := range run {
		unit.SegmentIDs = append(unit.SegmentIDs, seg.ID)
		if i == 0 {
			coords = append(coords, seg.Coords...)
			continue
		}
		// Drop the first coordinate: it duplicates the previous
		// segment's endpoint.
		coords = append(coords, seg.Coords[1:]...)
	}
	unit.Coords = coords

	n := float64(len(run))
	var finalTotal float64
	for _, seg := range run {
		finalTotal += seg.FinalValueNormal
	}
	unit.FinalScore = finalTotal / n

	for _, c := range criteria {
		var total float64
		for _, seg := range run {
			total += seg.Normal[c]
		}
		unit.Values[c] = total / n
	}
	return unit
}
