package zonal

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is a flat result ready for export: one row per zone.
type Table struct {
	Header []string
	Rows   [][]string
}

// BuildStatsTable flattens continuous statistics to a table keyed by the
// given zone names.
func BuildStatsTable(names []string, stats []Stats, columnName string) (*Table, error) {
	if len(names) != len(stats) {
		return nil, eris.Errorf("zonal: %d names for %d stat rows", len(names), len(stats))
	}

	t := &Table{Header: []string{"location", columnName}}
	for i, s := range stats {
		t.Rows = append(t.Rows, []string{
			names[i],
			strconv.FormatFloat(s.Mean, 'g', -1, 64),
		})
	}
	return t, nil
}

// BuildCategoricalTable flattens per-category values to a table with one
// column per category, sorted by label so output is deterministic. Zones
// missing a category report 0.
func BuildCategoricalTable(names []string, zones []map[string]float64) (*Table, error) {
	if len(names) != len(zones) {
		return nil, eris.Errorf("zonal: %d names for %d zones", len(names), len(zones))
	}

	catSet := make(map[string]struct{})
	for _, z := range zones {
		for c := range z {
			catSet[c] = struct{}{}
		}
	}
	cats := make([]string, 0, len(catSet))
	for c := range catSet {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	t := &Table{Header: append([]string{"location"}, cats...)}
	for i, z := range zones {
		row := make([]string, 0, len(cats)+1)
		row = append(row, names[i])
		for _, c := range cats {
			row = append(row, strconv.FormatFloat(z[c], 'g', -1, 64))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteXLSX writes the table as a single-sheet workbook.
func (t *Table) WriteXLSX(path, sheetName string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "zonal: add sheet")
	}

	hdr := sheet.AddRow()
	for _, h := range t.Header {
		hdr.AddCell().SetString(h)
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "zonal: save %s", path)
	}
	return nil
}

// WriteCSV writes the table as comma-separated UTF-8.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "zonal: create csv")
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return eris.Wrap(err, "zonal: write header")
	}
	for _, r := range t.Rows {
		if err := w.Write(r); err != nil {
			return eris.Wrap(err, "zonal: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "zonal: flush csv")
}
