package coast

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientSedimentLayer tiles the coastline with 1 km polygons whose
// sediment loss grows along the line, so segment scores vary predictably.
func gradientSedimentLayer(lengthKm float64) *ReferenceLayer {
	layer := &ReferenceLayer{Name: LayerSedimentBudget, Kind: PolygonLayer}
	for km := 0.0; km < lengthKm; km++ {
		f := polygonFeature(km+0.5, 0, 0.45, sedimentAttrs(km+1, 0))
		layer.Features = append(layer.Features, f)
	}
	return layer
}

func TestGenerateUnits_EndToEnd(t *testing.T) {
	line := testLine(10, 0.25)
	p := NewPipeline(LayerSet{LayerSedimentBudget: gradientSedimentLayer(10)}, 4)

	res, err := p.GenerateUnits(context.Background(), UnitsRequest{
		Coastline:     line,
		Start:         line[0],
		End:           line[len(line)-1],
		Resolution:    1000,
		Unit:          Meters,
		Criteria:      []Criterion{SedimentLoss},
		CategoryCount: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.Len(t, res.Segments, 10)
	require.NotEmpty(t, res.Units)

	// Loss grows monotonically along the line, so the first segment
	// normalizes to 0 and the last to 1.
	assert.Equal(t, 0.0, res.Segments[0].FinalValueNormal)
	assert.Equal(t, 1.0, res.Segments[9].FinalValueNormal)
	assert.Equal(t, 1, res.Units[0].Category)
	assert.Equal(t, 5, res.Units[len(res.Units)-1].Category)

	// Units partition the segment sequence in order.
	var ids []int
	for _, u := range res.Units {
		ids = append(ids, u.SegmentIDs...)
	}
	require.Len(t, ids, 10)
	for i, id := range ids {
		assert.Equal(t, i, id)
	}
}

func TestGenerateUnits_SubsetSlice(t *testing.T) {
	line := testLine(10, 0.25)
	p := NewPipeline(LayerSet{LayerSedimentBudget: gradientSedimentLayer(10)}, 2)

	res, err := p.GenerateUnits(context.Background(), UnitsRequest{
		Coastline:     line,
		Start:         kmPoint(2, 0.01),
		End:           kmPoint(7, -0.01),
		Resolution:    1000,
		Unit:          Meters,
		Criteria:      []Criterion{SedimentLoss},
		CategoryCount: 3,
	})
	require.NoError(t, err)
	assert.Len(t, res.Segments, 5)
}

func TestGenerateUnits_ValidatesBeforeGeometry(t *testing.T) {
	p := NewPipeline(LayerSet{LayerSedimentBudget: gradientSedimentLayer(10)}, 1)
	line := testLine(10, 0.25)
	base := UnitsRequest{
		Coastline:     line,
		Start:         line[0],
		End:           line[len(line)-1],
		Resolution:    1000,
		Unit:          Meters,
		Criteria:      []Criterion{SedimentLoss},
		CategoryCount: 5,
	}

	cases := []struct {
		name   string
		mutate func(*UnitsRequest)
	}{
		{"no criteria", func(r *UnitsRequest) { r.Criteria = nil }},
		{"missing layer", func(r *UnitsRequest) { r.Criteria = []Criterion{SoilErosion} }},
		{"bad category count", func(r *UnitsRequest) { r.CategoryCount = 1 }},
		{"bad resolution", func(r *UnitsRequest) { r.Resolution = 0 }},
		{"degenerate coastline", func(r *UnitsRequest) { r.Coastline = line[:1] }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := p.GenerateUnits(context.Background(), req)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrConfig))
		})
	}
}

func TestGenerateUnits_EmptyLayerIsDataError(t *testing.T) {
	line := testLine(5, 0.25)
	empty := &ReferenceLayer{Name: LayerSedimentBudget, Kind: PolygonLayer}
	p := NewPipeline(LayerSet{LayerSedimentBudget: empty}, 2)

	_, err := p.GenerateUnits(context.Background(), UnitsRequest{
		Coastline:     line,
		Start:         line[0],
		End:           line[len(line)-1],
		Resolution:    1000,
		Unit:          Meters,
		Criteria:      []Criterion{SedimentLoss},
		CategoryCount: 5,
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrData))
}

func TestRankBySimilarity_EndToEnd(t *testing.T) {
	// 20 km coastline sliced at the fixed 5000 ft resolution gives
	// 5000 ft = 1.524 km pieces.
	line := testLine(20, 0.25)
	p := NewPipeline(LayerSet{LayerSedimentBudget: gradientSedimentLayer(20)}, 4)

	res, err := p.RankBySimilarity(context.Background(), SimilarityRequest{
		Coastline: line,
		Midpoint:  kmPoint(10, 0.05),
		Criteria:  []Criterion{SedimentLoss},
		From:      0,
		To:        1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Segments)
	assert.Equal(t, 0.0, res.MinSimilarity)

	// The reference ranks itself at distance zero.
	for _, s := range res.Segments {
		if s.ID == res.ReferenceID {
			assert.Equal(t, 0.0, s.Similarity)
		}
	}
}

func TestRankBySimilarity_BadRange(t *testing.T) {
	line := testLine(20, 0.25)
	p := NewPipeline(LayerSet{LayerSedimentBudget: gradientSedimentLayer(20)}, 4)

	_, err := p.RankBySimilarity(context.Background(), SimilarityRequest{
		Coastline: line,
		Midpoint:  kmPoint(10, 0.05),
		Criteria:  []Criterion{SedimentLoss},
		From:      0.9,
		To:        0.1,
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrConfig))
}

func TestNearestSegment(t *testing.T) {
	segs := scoredSegments(0.1, 0.2, 0.3, 0.4)

	near := nearestSegment(segs, kmPoint(2.4, 0.2))
	assert.Equal(t, 2, near.ID)
}

func TestNewPipeline_DefaultWorkers(t *testing.T) {
	p := NewPipeline(LayerSet{}, 0)
	assert.Equal(t, defaultWorkers, p.workers)

	p = NewPipeline(LayerSet{}, 3)
	assert.Equal(t, 3, p.workers)
}

func TestGenerateUnits_ContextCancellation(t *testing.T) {
	line := testLine(10, 0.25)
	p := NewPipeline(LayerSet{LayerSedimentBudget: gradientSedimentLayer(10)}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GenerateUnits(ctx, UnitsRequest{
		Coastline:     line,
		Start:         line[0],
		End:           line[len(line)-1],
		Resolution:    1000,
		Unit:          Meters,
		Criteria:      []Criterion{SedimentLoss},
		CategoryCount: 5,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
