package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

// WriteUnitsXLSX renders a grouping run as a two-sheet workbook: one row
// per unit, one row per underlying segment.
func WriteUnitsXLSX(path string, res *coast.UnitsResult) error {
	f := xlsx.NewFile()

	units, err := f.AddSheet("Units")
	if err != nil {
		return eris.Wrap(err, "export: add units sheet")
	}
	var criteria []coast.Criterion
	if len(res.Units) > 0 {
		criteria = sortedCriteria(res.Units[0].Values)
	}

	header := units.AddRow()
	for _, title := range []string{"Unit", "Category", "Final Score", "Segments"} {
		header.AddCell().SetString(title)
	}
	for _, c := range criteria {
		header.AddCell().SetString(string(c))
	}
	for _, u := range res.Units {
		row := units.AddRow()
		row.AddCell().SetInt(u.ID)
		row.AddCell().SetInt(u.Category)
		row.AddCell().SetFloat(u.FinalScore)
		row.AddCell().SetString(segmentIDList(u.SegmentIDs))
		for _, c := range criteria {
			row.AddCell().SetFloat(u.Values[c])
		}
	}

	segments, err := f.AddSheet("Segments")
	if err != nil {
		return eris.Wrap(err, "export: add segments sheet")
	}
	header = segments.AddRow()
	for _, title := range []string{"Segment", "Category", "Score"} {
		header.AddCell().SetString(title)
	}
	for _, c := range criteria {
		header.AddCell().SetString(string(c))
	}
	for _, s := range res.Segments {
		row := segments.AddRow()
		row.AddCell().SetInt(s.ID)
		row.AddCell().SetInt(s.Category)
		row.AddCell().SetFloat(s.FinalValueNormal)
		for _, c := range criteria {
			row.AddCell().SetFloat(s.Normal[c])
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

// WriteSimilarityXLSX renders a similarity ranking as a single-sheet
// workbook ordered as ranked.
func WriteSimilarityXLSX(path string, res *coast.SimilarityResult) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Similarity")
	if err != nil {
		return eris.Wrap(err, "export: add similarity sheet")
	}
	header := sheet.AddRow()
	for _, title := range []string{"Segment", "Score", "Similarity", "Reference"} {
		header.AddCell().SetString(title)
	}
	for _, s := range res.Segments {
		row := sheet.AddRow()
		row.AddCell().SetInt(s.ID)
		row.AddCell().SetFloat(s.FinalValueNormal)
		row.AddCell().SetFloat(s.Similarity)
		if s.ID == res.ReferenceID {
			row.AddCell().SetString("yes")
		} else {
			row.AddCell().SetString("")
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}
