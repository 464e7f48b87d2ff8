package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

func sampleUnitsResult() *coast.UnitsResult {
	seg := func(id int, x0, x1, score float64, cat int) *coast.Segment {
		return &coast.Segment{
			ID:               id,
			Coords:           []geom.Coord{{x0, 0}, {x1, 0}},
			Raw:              map[coast.Criterion]float64{coast.SedimentLoss: score * 10},
			Normal:           map[coast.Criterion]float64{coast.SedimentLoss: score},
			FinalValueNormal: score,
			Category:         cat,
		}
	}
	return &coast.UnitsResult{
		RunID: "test-run",
		Units: []coast.Unit{
			{
				ID:         0,
				Category:   1,
				Coords:     []geom.Coord{{0, 0}, {0.01, 0}, {0.02, 0}},
				FinalScore: 0.15,
				Values:     map[coast.Criterion]float64{coast.SedimentLoss: 0.15},
				SegmentIDs: []int{0, 1},
			},
			{
				ID:         1,
				Category:   5,
				Coords:     []geom.Coord{{0.02, 0}, {0.03, 0}},
				FinalScore: 0.95,
				Values:     map[coast.Criterion]float64{coast.SedimentLoss: 0.95},
				SegmentIDs: []int{2},
			},
		},
		Segments: []*coast.Segment{
			seg(0, 0, 0.01, 0.1, 1),
			seg(1, 0.01, 0.02, 0.2, 1),
			seg(2, 0.02, 0.03, 0.95, 5),
		},
	}
}

func sampleSimilarityResult() *coast.SimilarityResult {
	seg := func(id int, score float64) *coast.Segment {
		return &coast.Segment{
			ID:               id,
			Coords:           []geom.Coord{{float64(id) / 100, 0}, {float64(id+1) / 100, 0}},
			FinalValueNormal: score,
		}
	}
	return &coast.SimilarityResult{
		Segments: []coast.SimilaritySegment{
			{Segment: seg(0, 0.4), Similarity: 0.1},
			{Segment: seg(1, 0.5), Similarity: 0},
			{Segment: seg(2, 0.7), Similarity: 0.3},
		},
		MinSimilarity:  0,
		MaxSimilarity:  0.3,
		ReferenceID:    1,
		ReferenceScore: 0.5,
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"geojson", "SHAPEFILE", "xlsx"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("kml")
	require.Error(t, err)
}

func TestWriteUnitsGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUnitsGeoJSON(&buf, sampleUnitsResult()))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "LineString", fc.Features[0].Geometry.Type)
	assert.Len(t, fc.Features[0].Geometry.Coordinates, 3)
	assert.Equal(t, float64(1), fc.Features[0].Properties["category"])
	assert.Equal(t, 0.95, fc.Features[1].Properties["final_score"])
	assert.Equal(t, 0.15, fc.Features[0].Properties[string(coast.SedimentLoss)])
}

func TestWriteSimilarityGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSimilarityGeoJSON(&buf, sampleSimilarityResult()))

	var fc struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	require.Len(t, fc.Features, 3)
	assert.Equal(t, true, fc.Features[1].Properties["is_reference"])
	assert.Equal(t, false, fc.Features[0].Properties["is_reference"])
}

func TestWriteUnitsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.xlsx")
	require.NoError(t, WriteUnitsXLSX(path, sampleUnitsResult()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	units := f.Sheets[0]
	// Header plus two unit rows.
	require.Len(t, units.Rows, 3)
	assert.Equal(t, "Unit", units.Rows[0].Cells[0].String())
	assert.Equal(t, "1", units.Rows[2].Cells[0].String())

	segments := f.Sheets[1]
	require.Len(t, segments.Rows, 4)
}

func TestWriteSimilarityXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.xlsx")
	require.NoError(t, WriteSimilarityXLSX(path, sampleSimilarityResult()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	require.Len(t, f.Sheets[0].Rows, 4)
	assert.Equal(t, "yes", f.Sheets[0].Rows[2].Cells[3].String())
}

func TestWriteUnitsShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.shp")
	require.NoError(t, WriteUnitsShapefile(path, sampleUnitsResult()))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var count int
	for r.Next() {
		_, shape := r.Shape()
		require.IsType(t, &shp.PolyLine{}, shape)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestWriteUnitsShapefile_ZipBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.zip")
	require.NoError(t, WriteUnitsShapefile(path, sampleUnitsResult()))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.NotZero(t, f.UncompressedSize64, f.Name)
	}
	assert.ElementsMatch(t, []string{"units.shp", "units.shx", "units.dbf"}, names)
}

func TestWriteSimilarityShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.shp")
	require.NoError(t, WriteSimilarityShapefile(path, sampleSimilarityResult()))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var count int
	for r.Next() {
		count++
	}
	assert.Equal(t, 3, count)
}
