package layers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
	"github.com/lakeshore-group/coastline-cli/internal/geometry"
)

const sedimentGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0, 0], [0.1, 0], [0.1, 0.1], [0, 0.1], [0, 0]]]
      },
      "properties": {
        "Coarse_Out": 1.5, "Bypass": 0.2, "Downdrift": 0.3,
        "Fines_Out": 0.1, "Littoral_C": 0.4,
        "Bluff_In": 0.6, "Bedload": 0.1, "GainDowndr": 0.2, "Littoral_1": 0.1,
        "Shore_Type": "sandy beach"
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [0.05, 0.05]},
      "properties": {"RASTERVALU": 7.25, "Station": "LS-04"}
    }
  ]
}`

const coastlineGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {
        "type": "LineString",
        "coordinates": [[0, 0], [0.01, 0], [0.02, 0.001]]
      },
      "properties": {"name": "test reach"}
    }
  ]
}`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest_Valid(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "sediment.geojson", sedimentGeoJSON)
	path := writeFixture(t, dir, "layers.yaml", `
layers:
  - name: sediment_budget
    kind: polygon
    path: sediment.geojson
    label_field: Shore_Type
  - name: endangered_species
    kind: buffered_point
    path: sediment.geojson
    buffer_km: 2.5
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Layers, 2)
	assert.Equal(t, coast.LayerSedimentBudget, m.Layers[0].Name)
	assert.Equal(t, 2.5, m.Layers[1].BufferKm)
}

func TestLoadManifest_Rejects(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name     string
		manifest string
	}{
		{"unknown layer", "layers:\n  - name: bathymetry\n    kind: polygon\n    path: x.geojson\n"},
		{"unknown kind", "layers:\n  - name: sediment_budget\n    kind: raster\n    path: x.geojson\n"},
		{"missing path", "layers:\n  - name: sediment_budget\n    kind: polygon\n"},
		{"duplicate", "layers:\n  - name: sediment_budget\n    kind: polygon\n    path: a.geojson\n  - name: sediment_budget\n    kind: polygon\n    path: b.geojson\n"},
		{"empty", "layers: []\n"},
		{"not yaml", "{{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFixture(t, dir, "bad-"+tc.name+".yaml", tc.manifest)
			_, err := LoadManifest(path)
			require.Error(t, err)
			assert.True(t, eris.Is(err, coast.ErrConfig))
		})
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, coast.ErrConfig))
}

func TestLoad_GeoJSONLayer(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "sediment.geojson", sedimentGeoJSON)
	path := writeFixture(t, dir, "layers.yaml", `
layers:
  - name: sediment_budget
    kind: polygon
    path: sediment.geojson
    label_field: Shore_Type
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	set, err := m.Load()
	require.NoError(t, err)

	layer, ok := set[coast.LayerSedimentBudget]
	require.True(t, ok)
	assert.Equal(t, coast.PolygonLayer, layer.Kind)
	require.Len(t, layer.Features, 2)

	poly := layer.Features[0]
	require.NotEmpty(t, poly.Polygon)
	assert.Equal(t, 1.5, poly.Attrs["Coarse_Out"])
	assert.Equal(t, "sandy beach", poly.Label)
	// Non-numeric properties stay out of the attribute map.
	_, hasLabelAttr := poly.Attrs["Shore_Type"]
	assert.False(t, hasLabelAttr)

	pt := layer.Features[1]
	require.NotNil(t, pt.Point)
	assert.Equal(t, 7.25, pt.Attrs["RASTERVALU"])
}

func TestLoad_LineSourceBufferedToCorridor(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "shore.geojson", `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {
        "type": "LineString",
        "coordinates": [[0, 0], [0.05, 0], [0.1, 0]]
      },
      "properties": {"Shore_Type": "bedrock"}
    }
  ]
}`)
	path := writeFixture(t, dir, "layers.yaml", `
layers:
  - name: shoreline_type
    kind: polygon
    path: shore.geojson
    label_field: Shore_Type
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	set, err := m.Load()
	require.NoError(t, err)

	layer := set[coast.LayerShorelineType]
	require.Len(t, layer.Features, 1)

	feat := layer.Features[0]
	require.Len(t, feat.Polygon, 1)
	ring := feat.Polygon[0]
	// Both offset sides plus closure: more vertices than the source line.
	assert.Greater(t, len(ring), 3)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	assert.Equal(t, "bedrock", feat.Label)

	// The corridor straddles the source line.
	assert.True(t, geometry.PointInRing(geom.Coord{0.05, 0}, ring))
}

func TestLoad_ShapefileLayer(t *testing.T) {
	dir := t.TempDir()
	shpPath := filepath.Join(dir, "stations.shp")

	w, err := shp.Create(shpPath, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("SPECIES", 32),
		shp.FloatField("RASTERVALU", 16, 6),
	}))
	points := []shp.Point{{X: 0.01, Y: 0.02}, {X: 0.03, Y: 0.04}}
	species := []string{"piping plover", "lake sturgeon"}
	for i := range points {
		w.Write(&points[i])
		require.NoError(t, w.WriteAttribute(i, 0, species[i]))
		require.NoError(t, w.WriteAttribute(i, 1, float64(i)+0.5))
	}
	w.Close()

	path := writeFixture(t, dir, "layers.yaml", `
layers:
  - name: endangered_species
    kind: buffered_point
    path: stations.shp
    label_field: SPECIES
    buffer_km: 1.5
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	set, err := m.Load()
	require.NoError(t, err)

	layer := set[coast.LayerEndangered]
	require.NotNil(t, layer)
	assert.Equal(t, coast.BufferedPointLayer, layer.Kind)
	assert.Equal(t, 1.5, layer.BufferKm)
	require.Len(t, layer.Features, 2)
	assert.Equal(t, "piping plover", layer.Features[0].Label)
	assert.InDelta(t, 0.01, layer.Features[0].Point[0], 1e-9)
	assert.InDelta(t, 1.5, layer.Features[1].Attrs["RASTERVALU"], 1e-6)
}

func TestLoad_EmptySource(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "empty.geojson", `{"type": "FeatureCollection", "features": []}`)
	path := writeFixture(t, dir, "layers.yaml", `
layers:
  - name: sediment_budget
    kind: polygon
    path: empty.geojson
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	_, err = m.Load()
	require.Error(t, err)
	assert.True(t, eris.Is(err, coast.ErrData))
}

func TestLoadCoastline(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "coastline.geojson", coastlineGeoJSON)

	line, err := LoadCoastline(path)
	require.NoError(t, err)
	require.Len(t, line, 3)
	assert.Equal(t, 0.01, line[1][0])
}

func TestLoadCoastline_NoLineString(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "points.geojson", sedimentGeoJSON)

	_, err := LoadCoastline(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, coast.ErrData))
}
