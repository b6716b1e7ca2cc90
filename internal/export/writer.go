package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteCSV writes the table to w. Fields are quoted only when needed.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return eris.Wrap(err, "export: write csv header")
		}
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return eris.Wrap(err, "export: write csv")
	}
	return nil
}

// SaveXLSX writes the table to a single-sheet workbook at path.
func (t Table) SaveXLSX(path, sheetName string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %q", sheetName)
	}

	if len(t.Header) > 0 {
		addRow(sheet, t.Header)
	}
	for _, rec := range t.Records {
		addRow(sheet, rec)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
