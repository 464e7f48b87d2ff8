package main

import (
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
	"github.com/lakeshore-group/coastline-cli/internal/export"
	"github.com/lakeshore-group/coastline-cli/internal/geometry"
)

// printer renders large counts and lengths with locale grouping.
var printer = message.NewPrinter(language.English)

// exportUnits writes a grouping result to path in the requested format.
func exportUnits(format export.Format, path string, res *coast.UnitsResult) error {
	switch format {
	case export.FormatGeoJSON:
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "cmd: create %s", path)
		}
		defer f.Close() //nolint:errcheck
		return export.WriteUnitsGeoJSON(f, res)
	case export.FormatShapefile:
		return export.WriteUnitsShapefile(path, res)
	case export.FormatXLSX:
		return export.WriteUnitsXLSX(path, res)
	}
	return eris.Wrapf(coast.ErrConfig, "unknown output format %q", string(format))
}

// exportSimilarity writes a similarity result to path in the requested
// format.
func exportSimilarity(format export.Format, path string, res *coast.SimilarityResult) error {
	switch format {
	case export.FormatGeoJSON:
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "cmd: create %s", path)
		}
		defer f.Close() //nolint:errcheck
		return export.WriteSimilarityGeoJSON(f, res)
	case export.FormatShapefile:
		return export.WriteSimilarityShapefile(path, res)
	case export.FormatXLSX:
		return export.WriteSimilarityXLSX(path, res)
	}
	return eris.Wrapf(coast.ErrConfig, "unknown output format %q", string(format))
}

// formatUnitsSummary writes a per-unit summary table to out.
func formatUnitsSummary(out io.Writer, res *coast.UnitsResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = printer.Fprintln(w, "UNIT\tCATEGORY\tSCORE\tSEGMENTS\tLENGTH_KM")
	_, _ = printer.Fprintln(w, "----\t--------\t-----\t--------\t---------")
	for _, u := range res.Units {
		_, _ = printer.Fprintf(w, "%d\t%d\t%.3f\t%d\t%.2f\n",
			u.ID,
			u.Category,
			u.FinalScore,
			len(u.SegmentIDs),
			geometry.LineLength(u.Coords),
		)
	}
	_ = w.Flush()
	_, _ = printer.Fprintf(out, "%d units over %d segments\n", len(res.Units), len(res.Segments))
}

// formatSimilaritySummary writes the ranked qualifying segments to out.
func formatSimilaritySummary(out io.Writer, res *coast.SimilarityResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = printer.Fprintln(w, "SEGMENT\tSCORE\tSIMILARITY")
	_, _ = printer.Fprintln(w, "-------\t-----\t----------")
	for _, s := range res.Segments {
		marker := ""
		if s.ID == res.ReferenceID {
			marker = "  (reference)"
		}
		_, _ = printer.Fprintf(w, "%d\t%.3f\t%.4f%s\n", s.ID, s.FinalValueNormal, s.Similarity, marker)
	}
	_ = w.Flush()
	_, _ = printer.Fprintf(out, "%d qualifying segments, reference %d scored %.3f\n",
		len(res.Segments), res.ReferenceID, res.ReferenceScore)
}
