package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

// WriteUnitsGeoJSON renders grouped units as a GeoJSON FeatureCollection,
// one LineString feature per unit.
func WriteUnitsGeoJSON(w io.Writer, res *coast.UnitsResult) error {
	fc := geojson.FeatureCollection{}
	for i := range res.Units {
		u := &res.Units[i]
		props := map[string]any{
			"unit_id":     u.ID,
			"category":    u.Category,
			"final_score": u.FinalScore,
			"segment_ids": u.SegmentIDs,
		}
		for _, c := range sortedCriteria(u.Values) {
			props[string(c)] = u.Values[c]
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   lineString(u.Coords),
			Properties: props,
		})
	}
	return writeCollection(w, &fc, "units")
}

// WriteSimilarityGeoJSON renders a similarity ranking as a GeoJSON
// FeatureCollection, one LineString feature per qualifying segment.
func WriteSimilarityGeoJSON(w io.Writer, res *coast.SimilarityResult) error {
	fc := geojson.FeatureCollection{}
	for _, s := range res.Segments {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: lineString(s.Coords),
			Properties: map[string]any{
				"segment_id":   s.ID,
				"score":        s.FinalValueNormal,
				"similarity":   s.Similarity,
				"is_reference": s.ID == res.ReferenceID,
			},
		})
	}
	return writeCollection(w, &fc, "similarity")
}

func writeCollection(w io.Writer, fc *geojson.FeatureCollection, what string) error {
	raw, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "export: marshal %s GeoJSON", what)
	}
	if _, err := w.Write(raw); err != nil {
		return eris.Wrapf(err, "export: write %s GeoJSON", what)
	}
	return nil
}

func lineString(coords []geom.Coord) *geom.LineString {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}
