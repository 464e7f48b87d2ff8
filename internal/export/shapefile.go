package export

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
)

// WriteUnitsShapefile renders grouped units as a polyline shapefile for
// desktop GIS. Attribute fields are capped at the DBF limits, so the
// segment list is truncated rather than split. A .zip path bundles the
// shapefile sidecars into a single archive.
func WriteUnitsShapefile(path string, res *coast.UnitsResult) error {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return writeZippedShapefile(path, func(shpPath string) error {
			return writeUnitsShapefile(shpPath, res)
		})
	}
	return writeUnitsShapefile(path, res)
}

func writeUnitsShapefile(path string, res *coast.UnitsResult) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := []shp.Field{
		shp.NumberField("UNIT_ID", 10),
		shp.NumberField("CATEGORY", 10),
		shp.FloatField("SCORE", 16, 6),
		shp.StringField("SEGMENTS", 254),
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for i, u := range res.Units {
		w.Write(polyline(u.Coords))
		if err := writeUnitAttrs(w, i, u); err != nil {
			return err
		}
	}
	return nil
}

func writeUnitAttrs(w *shp.Writer, row int, u coast.Unit) error {
	if err := w.WriteAttribute(row, 0, u.ID); err != nil {
		return eris.Wrap(err, "export: write UNIT_ID")
	}
	if err := w.WriteAttribute(row, 1, u.Category); err != nil {
		return eris.Wrap(err, "export: write CATEGORY")
	}
	if err := w.WriteAttribute(row, 2, u.FinalScore); err != nil {
		return eris.Wrap(err, "export: write SCORE")
	}
	ids := segmentIDList(u.SegmentIDs)
	if len(ids) > 254 {
		ids = ids[:254]
	}
	if err := w.WriteAttribute(row, 3, ids); err != nil {
		return eris.Wrap(err, "export: write SEGMENTS")
	}
	return nil
}

// WriteSimilarityShapefile renders a similarity ranking as a polyline
// shapefile, one record per qualifying segment. A .zip path bundles the
// shapefile sidecars into a single archive.
func WriteSimilarityShapefile(path string, res *coast.SimilarityResult) error {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return writeZippedShapefile(path, func(shpPath string) error {
			return writeSimilarityShapefile(shpPath, res)
		})
	}
	return writeSimilarityShapefile(path, res)
}

func writeSimilarityShapefile(path string, res *coast.SimilarityResult) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := []shp.Field{
		shp.NumberField("SEGMENT", 10),
		shp.FloatField("SCORE", 16, 6),
		shp.FloatField("SIMILARITY", 16, 6),
		shp.NumberField("IS_REF", 1),
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for i, s := range res.Segments {
		w.Write(polyline(s.Coords))
		if err := w.WriteAttribute(i, 0, s.ID); err != nil {
			return eris.Wrap(err, "export: write SEGMENT")
		}
		if err := w.WriteAttribute(i, 1, s.FinalValueNormal); err != nil {
			return eris.Wrap(err, "export: write SCORE")
		}
		if err := w.WriteAttribute(i, 2, s.Similarity); err != nil {
			return eris.Wrap(err, "export: write SIMILARITY")
		}
		ref := 0
		if s.ID == res.ReferenceID {
			ref = 1
		}
		if err := w.WriteAttribute(i, 3, ref); err != nil {
			return eris.Wrap(err, "export: write IS_REF")
		}
	}
	return nil
}

// writeZippedShapefile writes a shapefile into a scratch directory and
// bundles the .shp, .shx, and .dbf sidecars into a single archive, the
// form web map users expect to download.
func writeZippedShapefile(zipPath string, write func(shpPath string) error) error {
	dir, err := os.MkdirTemp("", "coastline-export")
	if err != nil {
		return eris.Wrap(err, "export: scratch dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	base := strings.TrimSuffix(filepath.Base(zipPath), filepath.Ext(zipPath))
	if err := write(filepath.Join(dir, base+".shp")); err != nil {
		return err
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", zipPath)
	}
	defer func() { _ = out.Close() }()

	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		if err := addZipEntry(zw, filepath.Join(dir, base+ext), base+ext); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return eris.Wrap(err, "export: finalize archive")
	}
	return out.Close()
}

func addZipEntry(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "export: open %s", path)
	}
	defer func() { _ = f.Close() }()

	entry, err := zw.Create(name)
	if err != nil {
		return eris.Wrapf(err, "export: archive entry %s", name)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return eris.Wrapf(err, "export: archive %s", name)
	}
	return nil
}

func polyline(coords []geom.Coord) *shp.PolyLine {
	points := make([]shp.Point, len(coords))
	for i, c := range coords {
		points[i] = shp.Point{X: c[0], Y: c[1]}
	}
	return shp.NewPolyLine([][]shp.Point{points})
}
