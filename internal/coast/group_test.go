package coast

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignCategory_TopScore(t *testing.T) {
	assert.Equal(t, 5, AssignCategory(1.0, 5))
	assert.Equal(t, 3, AssignCategory(1.0, 3))
}

func TestAssignCategory_BottomScore(t *testing.T) {
	assert.Equal(t, 1, AssignCategory(0.0, 5))
}

func TestAssignCategory_FiveBands(t *testing.T) {
	assert.Equal(t, 1, AssignCategory(0.2, 5))
	assert.Equal(t, 2, AssignCategory(0.21, 5))
	assert.Equal(t, 3, AssignCategory(0.5, 5))
	assert.Equal(t, 5, AssignCategory(0.83, 5))
}

func TestGroupSegments_ContiguousRuns(t *testing.T) {
	segs := scoredSegments(0.1, 0.15, 0.9, 0.95, 0.12)

	units, err := GroupSegments(segs, 5, nil)
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, []int{0, 1}, units[0].SegmentIDs)
	assert.Equal(t, []int{2, 3}, units[1].SegmentIDs)
	assert.Equal(t, []int{4}, units[2].SegmentIDs)
	assert.Equal(t, 1, units[0].Category)
	assert.Equal(t, 5, units[1].Category)
	assert.Equal(t, 1, units[2].Category)
}

func TestGroupSegments_SameCategoryNotMergedAcrossRuns(t *testing.T) {
	// Segments 0 and 2 share a category but are separated by segment 1,
	// so they land in distinct units.
	segs := scoredSegments(0.1, 0.9, 0.1)

	units, err := GroupSegments(segs, 5, nil)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, units[0].Category, units[2].Category)
}

func TestGroupSegments_SharedJointDedup(t *testing.T) {
	segs := scoredSegments(0.1, 0.12, 0.14)

	units, err := GroupSegments(segs, 5, nil)
	require.NoError(t, err)
	require.Len(t, units, 1)

	// Merging k two-point segments drops k-1 duplicated joints.
	total := 0
	for _, s := range segs {
		total += len(s.Coords)
	}
	assert.Len(t, units[0].Coords, total-(len(segs)-1))
}

func TestGroupSegments_UnitScoreIsMean(t *testing.T) {
	segs := scoredSegments(0.1, 0.2)
	for _, s := range segs {
		s.Normal[RetreatRate] = s.FinalValueNormal
	}

	units, err := GroupSegments(segs, 5, []Criterion{RetreatRate})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.InDelta(t, 0.15, units[0].FinalScore, 1e-9)
	assert.InDelta(t, 0.15, units[0].Values[RetreatRate], 1e-9)
}

func TestGroupSegments_SequentialUnitIDs(t *testing.T) {
	segs := scoredSegments(0.1, 0.9, 0.1, 0.9)

	units, err := GroupSegments(segs, 2, nil)
	require.NoError(t, err)
	require.Len(t, units, 4)
	for i, u := range units {
		assert.Equal(t, i, u.ID)
	}
}

func TestGroupSegments_Invalid(t *testing.T) {
	_, err := GroupSegments(scoredSegments(0.5), 1, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrConfig))

	_, err = GroupSegments(nil, 5, nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrConfig))
}
