package coast

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityWeights_SumToOne(t *testing.T) {
	for n, weights := range priorityWeights {
		require.Len(t, weights, n)
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "weights for %d criteria", n)
	}
}

func TestValidateCriteria_Accepts(t *testing.T) {
	layers := LayerSet{LayerSedimentBudget: coveringSedimentLayer(10, 1, 0)}

	err := validateCriteria([]Criterion{SedimentLoss}, layers)
	require.NoError(t, err)
}

func TestValidateCriteria_Rejects(t *testing.T) {
	layers := LayerSet{LayerSedimentBudget: coveringSedimentLayer(10, 1, 0)}

	cases := []struct {
		name     string
		criteria []Criterion
	}{
		{"empty", nil},
		{"too many", []Criterion{SedimentLoss, SedimentGain, NetSedimentLoss, RetreatRate}},
		{"unknown", []Criterion{Criterion("beach_volleyball")}},
		{"duplicate", []Criterion{SedimentLoss, SedimentLoss}},
		{"missing layer", []Criterion{SoilErosion}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCriteria(tc.criteria, layers)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrConfig))
		})
	}
}

func TestCombineScores_SingleCriterion(t *testing.T) {
	segs := scoredSegments(0, 0, 0)
	raws := []float64{2, 8, 5}
	for i, s := range segs {
		s.Raw[SedimentLoss] = raws[i]
	}

	err := combineScores(segs, []Criterion{SedimentLoss})
	require.NoError(t, err)
	assert.Equal(t, 2.0, segs[0].FinalValue)
	assert.Equal(t, 0.0, segs[0].FinalValueNormal)
	assert.Equal(t, 1.0, segs[1].FinalValueNormal)
	assert.InDelta(t, 0.5, segs[2].FinalValueNormal, 1e-9)
}

func TestCombineScores_TwoCriteriaWeighting(t *testing.T) {
	segs := scoredSegments(0, 0)
	segs[0].Raw[SedimentLoss] = 10
	segs[0].Raw[RetreatRate] = 0
	segs[1].Raw[SedimentLoss] = 0
	segs[1].Raw[RetreatRate] = 10

	err := combineScores(segs, []Criterion{SedimentLoss, RetreatRate})
	require.NoError(t, err)

	// First listed criterion carries 0.6, the second 0.4.
	assert.InDelta(t, 6.0, segs[0].FinalValue, 1e-9)
	assert.InDelta(t, 4.0, segs[1].FinalValue, 1e-9)
	assert.Equal(t, 1.0, segs[0].FinalValueNormal)
	assert.Equal(t, 0.0, segs[1].FinalValueNormal)
}

func TestCombineScores_ThreeCriteriaWeighting(t *testing.T) {
	segs := scoredSegments(0, 0)
	for c, v := range map[Criterion]float64{SedimentLoss: 1, RetreatRate: 2, SoilErosion: 3} {
		segs[0].Raw[c] = v
		segs[1].Raw[c] = 0
	}

	err := combineScores(segs, []Criterion{SedimentLoss, RetreatRate, SoilErosion})
	require.NoError(t, err)
	assert.InDelta(t, 0.5*1+0.3*2+0.2*3, segs[0].FinalValue, 1e-9)
}

func TestCombineScores_IdenticalRawsNormalizeToZero(t *testing.T) {
	segs := scoredSegments(0, 0)
	segs[0].Raw[SedimentLoss] = 3
	segs[1].Raw[SedimentLoss] = 3

	err := combineScores(segs, []Criterion{SedimentLoss})
	require.NoError(t, err)
	assert.Equal(t, 0.0, segs[0].FinalValueNormal)
	assert.Equal(t, 0.0, segs[1].FinalValueNormal)
}
