package coast

import "github.com/rotisserie/eris"

// Sentinel errors for the pipeline. Callers classify failures with
// eris.Is; everything the engine returns wraps exactly one of these.
var (
	// ErrConfig marks invalid run parameters: non-positive resolution,
	// category count below 2, a criterion selection that is empty,
	// duplicated, or larger than three, or a missing reference layer.
	// Configuration is validated before any geometry work begins.
	ErrConfig = eris.New("coast: invalid configuration")

	// ErrData marks a reference-data gap: a criterion exhausted both the
	// overlap query and the nearest-feature fallback, or a feature lacks
	// an attribute its aggregation rule requires.
	ErrData = eris.New("coast: reference data unavailable")

	// ErrRange marks a similarity filter that matches no segments or
	// excludes the reference segment's own score.
	ErrRange = eris.New("coast: score range excludes required segments")

	// ErrComputation marks a degenerate numeric domain, such as
	// normalizing an empty value array.
	ErrComputation = eris.New("coast: degenerate computation")
)
