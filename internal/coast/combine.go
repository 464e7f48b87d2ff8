package coast

import "github.com/rotisserie/eris"

// priorityWeights maps the number of active criteria to the weight of
// each priority slot. Priority order determines weight; the weights of
// every row sum to exactly 1.
var priorityWeights = map[int][]float64{
	1: {1.0},
	2: {0.6, 0.4},
	3: {0.5, 0.3, 0.2},
}

// validateCriteria checks an ordered selection of 1-3 criteria: every
// entry must be a known criterion, no entry may repeat, and every layer
// the selection needs must be loaded.
func validateCriteria(criteria []Criterion, layers LayerSet) error {
	if len(criteria) < 1 || len(criteria) > 3 {
		return eris.Wrapf(ErrConfig, "need 1 to 3 active criteria, got %d", len(criteria))
	}
	seen := make(map[Criterion]struct{}, len(criteria))
	for _, c := range criteria {
		if !c.Valid() {
			return eris.Wrapf(ErrConfig, "unknown criterion %q", string(c))
		}
		if _, dup := seen[c]; dup {
			return eris.Wrapf(ErrConfig, "criterion %q selected twice", string(c))
		}
		seen[c] = struct{}{}

		for _, name := range requiredLayers(c) {
			if _, ok := layers[name]; !ok {
				return eris.Wrapf(ErrConfig, "criterion %q requires layer %q", string(c), name)
			}
		}
	}
	return nil
}

// combineScores writes each segment's FinalValue as the priority-weighted
// combination of its raw criterion values, then normalizes the combined
// array once more (exponent 1) into FinalValueNormal.
func combineScores(segments []*Segment, criteria []Criterion) error {
	weights := priorityWeights[len(criteria)]

	finals := make([]float64, len(segments))
	for i, seg := range segments {
		var total float64
		for slot, c := range criteria {
			total += weights[slot] * seg.Raw[c]
		}
		seg.FinalValue = total
		finals[i] = total
	}

	normals, err := Normalize(finals, 1.0)
	if err != nil {
		return err
	}
	for i, seg := range segments {
		seg.FinalValueNormal = normals[i]
	}
	return nil
}
