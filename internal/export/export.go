// Package export renders pipeline results to the formats field staff
// consume: GeoJSON for web maps, shapefiles for desktop GIS, and XLSX
// workbooks for reporting.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

// Format names a supported output format.
type Format string

const (
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shapefile"
	FormatXLSX      Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatGeoJSON:
		return FormatGeoJSON, nil
	case FormatShapefile:
		return FormatShapefile, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", eris.Wrapf(coast.ErrConfig, "unknown output format %q", s)
}

// sortedCriteria returns the criteria present in a value map in stable
// presentation order.
func sortedCriteria(values map[coast.Criterion]float64) []coast.Criterion {
	out := make([]coast.Criterion, 0, len(values))
	for c := range values {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func segmentIDList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
