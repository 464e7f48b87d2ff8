package coast

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Aggregation rules are fixed business rules: each criterion binds to one
// reference layer (or, for composites, to sub-criteria), a lateral box
// distance, and a normalization exponent.

// Numeric attributes the sediment budget rules sum per feature.
var (
	sedimentLossAttrs = []string{"Coarse_Out", "Bypass", "Downdrift", "Fines_Out", "Littoral_C"}
	sedimentGainAttrs = []string{"Bluff_In", "Bedload", "GainDowndr", "Littoral_1"}
)

const (
	retreatRateAttr = "Retreat_Rt"
	soilErosionAttr = "Kfactor"
	pointValueAttr  = "RASTERVALU"
)

// shorelineTypeScores maps the categorical shoreline class to its ordinal
// bucket. Lower buckets resist erosion better. Unmapped classes fall into
// bucket 5.
var shorelineTypeScores = map[string]float64{
	"bedrock":         0,
	"shore structure": 1,
	"cohesive bluff":  2,
	"pocket beach":    3,
	"sandy beach":     4,
}

const shorelineTypeUnmapped = 5

type weightedPart struct {
	criterion Criterion
	weight    float64
}

type criterionRule struct {
	// layer names the reference layer the rule joins against; empty for
	// composite criteria.
	layer string
	// boxKm is the lateral distance of the inclusion box.
	boxKm float64
	// exponent is the fixed normalization exponent.
	exponent float64
	// parts defines a composite as a weighted sum of sub-criteria.
	parts []weightedPart
}

var criterionRules = map[Criterion]criterionRule{
	SedimentLoss:      {layer: LayerSedimentBudget, boxKm: 0.2, exponent: 1.5},
	SedimentGain:      {layer: LayerSedimentBudget, boxKm: 0.2, exponent: 1.5},
	NetSedimentLoss:   {layer: LayerSedimentBudget, boxKm: 0.2, exponent: 1.5},
	RetreatRate:       {layer: LayerSedimentBudget, boxKm: 0.2, exponent: 1.0},
	SoilErosion:       {layer: LayerSoilErosion, boxKm: 0.2, exponent: 1.0},
	ShorelineType:     {layer: LayerShorelineType, boxKm: 0.2, exponent: 1.0},
	HabitatIndex:      {layer: LayerFishWildlife, boxKm: 0.5, exponent: 1.0},
	WetlandPotential:  {layer: LayerWetlandPotential, boxKm: 0.5, exponent: 1.0},
	CommunityExposure: {layer: LayerCommunityExposure, boxKm: 0.5, exponent: 1.0},
	PhysicalCondition: {layer: LayerPhysicalCondition, boxKm: 0.5, exponent: 1.0},
	EndangeredSpecies: {layer: LayerEndangered, boxKm: 0.2, exponent: 1.0},
	InvasiveSpecies:   {layer: LayerInvasive, boxKm: 0.2, exponent: 1.0},
	ErosionPotential: {exponent: 1.0, parts: []weightedPart{
		{RetreatRate, 0.5}, {SoilErosion, 0.3}, {ShorelineType, 0.2},
	}},
	HabitatProtection: {exponent: 1.0, parts: []weightedPart{
		{HabitatIndex, 0.5}, {WetlandPotential, 0.3}, {EndangeredSpecies, 0.2},
	}},
}

// requiredLayers returns the layer names a criterion needs, expanding
// composites.
func requiredLayers(c Criterion) []string {
	rule := criterionRules[c]
	if len(rule.parts) == 0 {
		return []string{rule.layer}
	}
	var names []string
	for _, part := range rule.parts {
		names = append(names, requiredLayers(part.criterion)...)
	}
	return names
}

// exponentFor returns the fixed normalization exponent of a criterion.
func exponentFor(c Criterion) float64 {
	return criterionRules[c].exponent
}

// evaluateCriterion computes one raw value for one segment. Composite
// criteria weight their sub-criteria's raw values; everything else joins
// the segment's lateral box against the bound layer and aggregates.
func evaluateCriterion(c Criterion, seg *Segment, layers LayerSet) (float64, error) {
	rule := criterionRules[c]

	if len(rule.parts) > 0 {
		var total float64
		for _, part := range rule.parts {
			v, err := evaluateCriterion(part.criterion, seg, layers)
			if err != nil {
				return 0, err
			}
			total += part.weight * v
		}
		return total, nil
	}

	layer, ok := layers[rule.layer]
	if !ok {
		return 0, eris.Wrapf(ErrConfig, "criterion %q requires layer %q", string(c), rule.layer)
	}

	box := lateralBox(seg.Coords, rule.boxKm)
	feats, err := joinFeatures(seg, box, layer)
	if err != nil {
		return 0, eris.Wrapf(err, "criterion %q, segment %d", string(c), seg.ID)
	}

	switch c {
	case SedimentLoss:
		return attrSumMean(feats, sedimentLossAttrs)
	case SedimentGain:
		return attrSumMean(feats, sedimentGainAttrs)
	case NetSedimentLoss:
		loss, err := attrSumMean(feats, sedimentLossAttrs)
		if err != nil {
			return 0, err
		}
		gain, err := attrSumMean(feats, sedimentGainAttrs)
		if err != nil {
			return 0, err
		}
		return loss - gain, nil
	case RetreatRate:
		return attrMean(feats, retreatRateAttr)
	case SoilErosion:
		return attrMean(feats, soilErosionAttr)
	case ShorelineType:
		return shorelineTypeMean(feats), nil
	case HabitatIndex, WetlandPotential, CommunityExposure:
		return attrMean(feats, pointValueAttr)
	case PhysicalCondition:
		return attrMedian(feats, pointValueAttr)
	case EndangeredSpecies, InvasiveSpecies:
		return speciesDiversity(feats), nil
	default:
		return 0, eris.Wrapf(ErrConfig, "criterion %q has no aggregation rule", string(c))
	}
}

// attrSumMean sums the named attributes per feature and averages the sums
// across features. A feature missing any named attribute is a data error.
func attrSumMean(feats []*ReferenceFeature, names []string) (float64, error) {
	if len(feats) == 0 {
		return 0, eris.Wrap(ErrData, "aggregation over empty feature set")
	}
	var total float64
	for _, f := range feats {
		for _, name := range names {
			v, ok := f.Attrs[name]
			if !ok {
				return 0, eris.Wrapf(ErrData, "feature missing attribute %q", name)
			}
			total += v
		}
	}
	return total / float64(len(feats)), nil
}

// attrMean averages a single named attribute across features.
func attrMean(feats []*ReferenceFeature, name string) (float64, error) {
	if len(feats) == 0 {
		return 0, eris.Wrap(ErrData, "aggregation over empty feature set")
	}
	var total float64
	for _, f := range feats {
		v, ok := f.Attrs[name]
		if !ok {
			return 0, eris.Wrapf(ErrData, "feature missing attribute %q", name)
		}
		total += v
	}
	return total / float64(len(feats)), nil
}

// attrMedian returns the median of a single named attribute across
// features.
func attrMedian(feats []*ReferenceFeature, name string) (float64, error) {
	if len(feats) == 0 {
		return 0, eris.Wrap(ErrData, "aggregation over empty feature set")
	}
	values := make([]float64, 0, len(feats))
	for _, f := range feats {
		v, ok := f.Attrs[name]
		if !ok {
			return 0, eris.Wrapf(ErrData, "feature missing attribute %q", name)
		}
		values = append(values, v)
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid], nil
	}
	return (values[mid-1] + values[mid]) / 2, nil
}

// shorelineTypeMean maps each feature's categorical class through the
// ordinal table and averages the buckets.
func shorelineTypeMean(feats []*ReferenceFeature) float64 {
	var total float64
	for _, f := range feats {
		score, ok := shorelineTypeScores[f.Label]
		if !ok {
			score = shorelineTypeUnmapped
		}
		total += score
	}
	return total / float64(len(feats))
}

// speciesDiversity counts distinct species labels among the joined
// buffered points.
func speciesDiversity(feats []*ReferenceFeature) float64 {
	seen := make(map[string]struct{}, len(feats))
	for _, f := range feats {
		seen[f.Label] = struct{}{}
	}
	return float64(len(seen))
}
