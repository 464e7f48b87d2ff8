package coast

import (
	"math"

	"github.com/rotisserie/eris"
)

// RankSimilarity filters segments whose normalized final score falls in
// [from, to], rescales the filtered subset to its own min-max domain, and
// reports each qualifying segment's absolute distance from the reference
// segment's rescaled score. Lower similarity means closer to the
// reference.
func RankSimilarity(segments []*Segment, referenceID int, from, to float64) (*SimilarityResult, error) {
	if from < 0 || to > 1 || from > to {
		return nil, eris.Wrapf(ErrConfig, "score range [%g, %g] is not a subrange of [0, 1]", from, to)
	}

	var reference *Segment
	for _, seg := range segments {
		if seg.ID == referenceID {
			reference = seg
			break
		}
	}
	if reference == nil {
		return nil, eris.Wrapf(ErrConfig, "reference segment %d not found", referenceID)
	}

	refScore := reference.FinalValueNormal
	if refScore < from || refScore > to {
		return nil, eris.Wrapf(ErrRange,
			"reference score %.4f outside range [%g, %g]", refScore, from, to)
	}

	var qualifying []*Segment
	for _, seg := range segments {
		if seg.FinalValueNormal >= from && seg.FinalValueNormal <= to {
			qualifying = append(qualifying, seg)
		}
	}
	if len(qualifying) == 0 {
		return nil, eris.Wrapf(ErrRange, "no segments with score in [%g, %g]", from, to)
	}

	// Rescale within the subset only, so similarity spreads across the
	// chosen range instead of the full score domain.
	min, max := qualifying[0].FinalValueNormal, qualifying[0].FinalValueNormal
	for _, seg := range qualifying[1:] {
		if seg.FinalValueNormal < min {
			min = seg.FinalValueNormal
		}
		if seg.FinalValueNormal > max {
			max = seg.FinalValueNormal
		}
	}

	const exponent = 1.0
	refRescaled := rescale(refScore, min, max, exponent)

	result := &SimilarityResult{
		Segments:       make([]SimilaritySegment, 0, len(qualifying)),
		MinSimilarity:  math.Inf(1),
		MaxSimilarity:  math.Inf(-1),
		ReferenceID:    referenceID,
		ReferenceScore: refScore,
	}
	for _, seg := range qualifying {
		sim := math.Abs(rescale(seg.FinalValueNormal, min, max, exponent) - refRescaled)
		result.Segments = append(result.Segments, SimilaritySegment{Segment: seg, Similarity: sim})
		if sim < result.MinSimilarity {
			result.MinSimilarity = sim
		}
		if sim > result.MaxSimilarity {
			result.MaxSimilarity = sim
		}
	}
	return result, nil
}
