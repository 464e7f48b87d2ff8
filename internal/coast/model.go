package coast

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Criterion identifies one of the fixed decision factors a user can weight.
// The set is closed: criteria, their aggregation rules, and their layer
// bindings are business rules of the application, not pluggable formulas.
type Criterion string

const (
	SedimentLoss      Criterion = "sediment_loss"
	SedimentGain      Criterion = "sediment_gain"
	NetSedimentLoss   Criterion = "net_sediment_loss"
	RetreatRate       Criterion = "retreat_rate"
	SoilErosion       Criterion = "soil_erosion"
	ShorelineType     Criterion = "shoreline_type"
	HabitatIndex      Criterion = "habitat_index"
	WetlandPotential  Criterion = "wetland_potential"
	CommunityExposure Criterion = "community_exposure"
	PhysicalCondition Criterion = "physical_condition"
	EndangeredSpecies Criterion = "endangered_species"
	InvasiveSpecies   Criterion = "invasive_species"
	ErosionPotential  Criterion = "erosion_potential"
	HabitatProtection Criterion = "habitat_protection"
)

// AllCriteria lists every selectable criterion in presentation order.
var AllCriteria = []Criterion{
	SedimentLoss, SedimentGain, NetSedimentLoss,
	RetreatRate, SoilErosion, ShorelineType,
	HabitatIndex, WetlandPotential, CommunityExposure, PhysicalCondition,
	EndangeredSpecies, InvasiveSpecies,
	ErosionPotential, HabitatProtection,
}

// Valid reports whether c is a member of the closed criterion set.
func (c Criterion) Valid() bool {
	_, ok := criterionRules[c]
	return ok
}

// ParseCriterion converts a user-supplied identifier into a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(s)
	if !c.Valid() {
		return "", eris.Wrapf(ErrConfig, "unknown criterion %q", s)
	}
	return c, nil
}

// LayerKind describes how a reference layer's features join spatially.
type LayerKind int

const (
	// PolygonLayer joins by polygon-polygon overlap with the lateral box.
	PolygonLayer LayerKind = iota
	// PointLayer joins by point containment in the lateral box.
	PointLayer
	// BufferedPointLayer joins by a per-feature buffer circle
	// intersecting the lateral box.
	BufferedPointLayer
)

func (k LayerKind) String() string {
	switch k {
	case PolygonLayer:
		return "polygon"
	case PointLayer:
		return "point"
	case BufferedPointLayer:
		return "buffered_point"
	}
	return "unknown"
}

// ReferenceFeature is one geometry plus attributes from a reference layer.
// Features are immutable, externally supplied inputs.
type ReferenceFeature struct {
	// Polygon holds the outer ring (and any holes) for polygon features;
	// nil for point features.
	Polygon [][]geom.Coord
	// Point holds the location for point features, and doubles as the
	// precomputed representative point for polygon features.
	Point geom.Coord
	// Attrs holds the numeric attributes aggregation rules read.
	Attrs map[string]float64
	// Label holds the categorical attribute where a rule needs one:
	// the shoreline type class, or the species name.
	Label string
	// BufferKm overrides the layer-level buffer radius for this feature
	// when positive. Used by species layers with per-species ranges.
	BufferKm float64
}

// RepresentativePoint returns the feature's point, deriving a centroid for
// polygon features that were loaded without one.
func (f *ReferenceFeature) RepresentativePoint() geom.Coord {
	if f.Point != nil {
		return f.Point
	}
	if len(f.Polygon) > 0 {
		return centroidOf(f.Polygon[0])
	}
	return geom.Coord{0, 0}
}

// ReferenceLayer is a named, immutable collection of reference features.
// Layers are read-only for the lifetime of a pipeline run; concurrent runs
// may share them freely.
type ReferenceLayer struct {
	Name     string
	Kind     LayerKind
	Features []ReferenceFeature
	// BufferKm is the default buffer radius for BufferedPointLayer
	// features without a per-feature override.
	BufferKm float64
}

// LayerSet maps well-known layer names to loaded reference layers.
type LayerSet map[string]*ReferenceLayer

// Well-known layer names the criterion rules bind to. The loader registry
// validates manifests against this list.
const (
	LayerSedimentBudget    = "sediment_budget"
	LayerShorelineType     = "shoreline_type"
	LayerSoilErosion       = "soil_erosion"
	LayerFishWildlife      = "fish_wildlife"
	LayerWetlandPotential  = "wetland_potential"
	LayerCommunityExposure = "community_exposure"
	LayerPhysicalCondition = "physical_condition"
	LayerEndangered        = "endangered_species"
	LayerInvasive          = "invasive_species"
)

// Segment is one chunk of the sliced coastline, the atomic unit of scoring.
// Segments are created by the segmenter and mutated in place by each later
// stage; they are never re-ordered, and ids follow traversal order.
type Segment struct {
	ID     int          `json:"id"`
	Coords []geom.Coord `json:"coords"`

	// Raw holds each evaluated criterion's pre-normalization value.
	Raw map[Criterion]float64 `json:"raw"`
	// Normal holds each criterion's min-max normalized value in [0,1].
	Normal map[Criterion]float64 `json:"normal"`

	// FinalValue is the priority-weighted combination of raw values.
	FinalValue float64 `json:"final_value"`
	// FinalValueNormal is FinalValue rescaled to [0,1] across all segments.
	FinalValueNormal float64 `json:"final_value_normal"`

	// Category is the ordinal bucket assigned by the grouper; 0 until set.
	Category int `json:"category,omitempty"`
}

// Unit is the grouped output entity: one or more contiguous same-category
// segments merged into a single feature. Units are numbered 0..M-1 in
// traversal order, independent of segment ids.
type Unit struct {
	ID       int          `json:"id"`
	Category int          `json:"category"`
	Coords   []geom.Coord `json:"coords"`
	// FinalScore is the mean normalized final score of the merged segments.
	FinalScore float64 `json:"final_score"`
	// Values holds, per active criterion, the mean normalized value of the
	// merged segments.
	Values map[Criterion]float64 `json:"values"`
	// SegmentIDs lists the constituent segments in traversal order.
	SegmentIDs []int `json:"segment_ids"`
}

// SimilaritySegment annotates a qualifying segment with its similarity to
// the reference. Lower similarity means closer to the reference.
type SimilaritySegment struct {
	*Segment
	Similarity float64 `json:"similarity"`
}

// SimilarityResult is the output of the similarity pipeline.
type SimilarityResult struct {
	Segments []SimilaritySegment `json:"segments"`
	// MinSimilarity and MaxSimilarity span the qualifying subset; they
	// exist for presentation scaling only.
	MinSimilarity float64 `json:"min_similarity"`
	MaxSimilarity float64 `json:"max_similarity"`
	// ReferenceID is the reference segment's id; ReferenceScore its
	// finalValueNormal.
	ReferenceID    int     `json:"reference_id"`
	ReferenceScore float64 `json:"reference_score"`
}

// UnitsResult is the output of the grouping pipeline.
type UnitsResult struct {
	RunID    string     `json:"run_id"`
	Units    []Unit     `json:"units"`
	Segments []*Segment `json:"segments"`
}
