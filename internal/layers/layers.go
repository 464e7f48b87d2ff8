// Package layers loads reference layers from a YAML manifest into the
// in-memory LayerSet the scoring pipeline joins against. GeoJSON and
// shapefile sources are supported; the manifest binds each file to one of
// the well-known layer names.
package layers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

// knownLayers is the set of layer names criterion rules can bind to.
var knownLayers = map[string]struct{}{
	coast.LayerSedimentBudget:    {},
	coast.LayerShorelineType:     {},
	coast.LayerSoilErosion:       {},
	coast.LayerFishWildlife:      {},
	coast.LayerWetlandPotential:  {},
	coast.LayerCommunityExposure: {},
	coast.LayerPhysicalCondition: {},
	coast.LayerEndangered:        {},
	coast.LayerInvasive:          {},
}

var kindNames = map[string]coast.LayerKind{
	"polygon":        coast.PolygonLayer,
	"point":          coast.PointLayer,
	"buffered_point": coast.BufferedPointLayer,
}

// Entry binds one source file to a well-known layer name.
type Entry struct {
	// Name is one of the well-known layer names.
	Name string `yaml:"name"`
	// Kind selects the join behavior: polygon, point, or buffered_point.
	Kind string `yaml:"kind"`
	// Path locates the source file, relative to the manifest.
	Path string `yaml:"path"`
	// LabelField names the attribute carrying the categorical label,
	// where the layer has one.
	LabelField string `yaml:"label_field,omitempty"`
	// BufferField names the attribute carrying a per-feature buffer
	// radius in kilometers, for buffered point layers.
	BufferField string `yaml:"buffer_field,omitempty"`
	// BufferKm is the layer-level default buffer radius in kilometers.
	BufferKm float64 `yaml:"buffer_km,omitempty"`
}

// Manifest lists every reference layer of a study area.
type Manifest struct {
	Layers []Entry `yaml:"layers"`

	// dir anchors relative entry paths.
	dir string
}

// LoadManifest parses and validates a YAML layer manifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(coast.ErrConfig, "read layer manifest %s: %v", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, eris.Wrapf(coast.ErrConfig, "parse layer manifest %s: %v", path, err)
	}
	if len(m.Layers) == 0 {
		return nil, eris.Wrapf(coast.ErrConfig, "layer manifest %s lists no layers", path)
	}

	seen := make(map[string]struct{}, len(m.Layers))
	for _, e := range m.Layers {
		if _, ok := knownLayers[e.Name]; !ok {
			return nil, eris.Wrapf(coast.ErrConfig, "unknown layer name %q", e.Name)
		}
		if _, ok := kindNames[e.Kind]; !ok {
			return nil, eris.Wrapf(coast.ErrConfig, "layer %q has unknown kind %q", e.Name, e.Kind)
		}
		if e.Path == "" {
			return nil, eris.Wrapf(coast.ErrConfig, "layer %q has no path", e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, eris.Wrapf(coast.ErrConfig, "layer %q listed twice", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	m.dir = filepath.Dir(path)
	return &m, nil
}

// Load reads every manifest entry into a LayerSet.
func (m *Manifest) Load() (coast.LayerSet, error) {
	log := zap.L().With(zap.String("component", "layers.loader"))

	set := make(coast.LayerSet, len(m.Layers))
	for _, e := range m.Layers {
		layer, err := m.loadEntry(e)
		if err != nil {
			return nil, err
		}
		set[e.Name] = layer
		log.Info("layer loaded",
			zap.String("layer", e.Name),
			zap.String("kind", e.Kind),
			zap.Int("features", len(layer.Features)),
		)
	}
	return set, nil
}

func (m *Manifest) loadEntry(e Entry) (*coast.ReferenceLayer, error) {
	path := e.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, path)
	}

	var (
		features []coast.ReferenceFeature
		err      error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		features, err = readGeoJSONFeatures(path, e)
	case ".shp":
		features, err = readShapefileFeatures(path, e)
	default:
		return nil, eris.Wrapf(coast.ErrConfig, "layer %q: unsupported source %s", e.Name, path)
	}
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, eris.Wrapf(coast.ErrData, "layer %q: %s holds no usable features", e.Name, path)
	}

	return &coast.ReferenceLayer{
		Name:     e.Name,
		Kind:     kindNames[e.Kind],
		Features: features,
		BufferKm: e.BufferKm,
	}, nil
}
